package draft

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Field identifies an editable draft field.
type Field string

// Editable fields of a draft.
const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

// Status is the save status of a draft session.
type Status string

// Draft session states. "saved" is deliberately absent: it is a
// display overlay on clean, surfaced via Snapshot.JustSaved.
const (
	StatusClean   Status = "clean"
	StatusPending Status = "pending" // dirty, debounce timer armed
	StatusSaving  Status = "saving"  // commit in flight
	StatusError   Status = "error"   // last commit failed, edits retained
)

// ErrEmptyTitle blocks a commit whose title would fail server-side
// validation; the draft never enters saving with a known-bad payload.
var ErrEmptyTitle = errors.New("title must not be empty")

// Record is the draft's view of a persisted note. IDs are opaque
// strings so the core stays independent of the storage layer.
type Record struct {
	ID        string
	Title     string
	Content   string
	UpdatedAt time.Time
}

// Patch carries the fields that differ from baseline at commit time.
// A nil field is excluded from the update payload.
type Patch struct {
	Title   *string
	Content *string
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// Store is the create-or-update surface a session commits against.
// Implementations bind the acting user; the session never sees auth.
type Store interface {
	Create(ctx context.Context, title, content string) (*Record, error)
	Update(ctx context.Context, id string, patch Patch) (*Record, error)
}

// Snapshot is an immutable view of session state handed to the status
// listener and returned by Snapshot().
type Snapshot struct {
	NoteID      string
	Status      Status
	Dirty       bool
	JustSaved   bool // set only on the notification following a successful commit
	LastSavedAt time.Time
	Err         error
}

// Config tunes a session. Zero values fall back to defaults.
type Config struct {
	Debounce      time.Duration // delay between last edit and autosave commit
	CommitTimeout time.Duration // per-commit network budget
	Clock         func() time.Time
}

// Default session tuning.
const (
	DefaultDebounce      = 2 * time.Second
	DefaultCommitTimeout = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.CommitTimeout <= 0 {
		c.CommitTimeout = DefaultCommitTimeout
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Session reconciles a locally edited draft with its persisted record.
//
// One session per open note. Edits, timer fires, commit completions and
// Close are serialized by a single mutex; commits themselves run in a
// goroutine and re-enter through finishCommit, which drops completions
// that are stale (superseded by a newer commit) or arrive after Close.
type Session struct {
	mu       sync.Mutex
	store    Store
	sched    *Scheduler
	cfg      Config
	log      *slog.Logger
	onChange func(Snapshot)

	baseline       *Record
	workingTitle   string
	workingContent string
	status         Status
	lastSavedAt    time.Time
	lastErr        error
	everDirty      bool
	closed         bool
	commitSeq      uint64
}

// NewSession opens a draft session. A nil baseline starts a new-note
// session whose first commit creates the record and adopts its id.
// onChange may be nil; when set it receives a snapshot after every
// observable state change.
func NewSession(store Store, baseline *Record, cfg Config, log *slog.Logger, onChange func(Snapshot)) *Session {
	s := &Session{
		store:    store,
		cfg:      cfg.withDefaults(),
		log:      log,
		onChange: onChange,
		status:   StatusClean,
	}
	if baseline != nil {
		b := *baseline
		s.baseline = &b
		s.workingTitle = b.Title
		s.workingContent = b.Content
		s.lastSavedAt = b.UpdatedAt
	}
	s.sched = NewScheduler(s.timerFire)
	return s
}

// Edit applies a field change to the working copy.
//
// An edit that makes the working copy differ from baseline arms (or
// re-arms) the debounce timer: trailing-edge debounce, only the last
// edit inside the window triggers a commit. An edit that restores the
// baseline exactly cancels the timer and returns to clean. While a
// commit is in flight the working copy is updated silently and the
// completion reconciles.
func (s *Session) Edit(field Field, value string) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return
	}

	switch field {
	case FieldTitle:
		s.workingTitle = value
	case FieldContent:
		s.workingContent = value
	default:
		s.mu.Unlock()
		return
	}

	dirty := s.dirtyLocked()
	switch {
	case s.status == StatusSaving:
		if dirty {
			s.everDirty = true
		}
	case dirty:
		s.everDirty = true
		s.status = StatusPending
		s.lastErr = nil
		s.sched.Arm(s.cfg.Debounce)
	default:
		s.status = StatusClean
		s.lastErr = nil
		s.sched.Cancel()
	}

	snap := s.snapshotLocked(false)
	s.mu.Unlock()
	s.notify(snap)
}

// Save commits immediately, bypassing the debounce window.
// A no-op while a commit is already in flight, and for a session that
// is clean and was never dirty.
func (s *Session) Save() {
	s.mu.Lock()

	if s.closed || s.status == StatusSaving {
		s.mu.Unlock()
		return
	}
	if !s.dirtyLocked() && !s.everDirty {
		s.mu.Unlock()
		return
	}

	s.sched.Cancel()
	s.beginCommitLocked()

	snap := s.snapshotLocked(false)
	s.mu.Unlock()
	s.notify(snap)
}

// Close discards the draft. Pending timers are canceled and any
// in-flight commit completion becomes a no-op; the session cannot be
// resurrected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.sched.Cancel()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(false)
}

// timerFire is the scheduler callback. The generation re-check under
// the session lock makes cancellation win any cancel/fire race.
func (s *Session) timerFire(gen uint64) {
	s.mu.Lock()

	if s.closed || !s.sched.Valid(gen) || s.status != StatusPending {
		s.mu.Unlock()
		return
	}

	s.beginCommitLocked()

	snap := s.snapshotLocked(false)
	s.mu.Unlock()
	s.notify(snap)
}

// beginCommitLocked decides create-vs-update, builds the payload from
// the diff at this moment, and launches the commit goroutine.
// Requires s.mu held.
func (s *Session) beginCommitLocked() {
	if s.baseline == nil {
		if !s.dirtyLocked() {
			// New-note session edited back to empty: nothing to create.
			s.status = StatusClean
			s.lastErr = nil
			return
		}
		if strings.TrimSpace(s.workingTitle) == "" {
			s.status = StatusError
			s.lastErr = ErrEmptyTitle
			return
		}

		s.status = StatusSaving
		s.commitSeq++
		seq := s.commitSeq
		title, content := s.workingTitle, s.workingContent
		go s.runCreate(seq, title, content)
		return
	}

	patch := s.diffLocked()
	if patch.Empty() {
		// Everything edited back to baseline before the commit fired.
		s.status = StatusClean
		s.lastErr = nil
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		s.status = StatusError
		s.lastErr = ErrEmptyTitle
		return
	}

	s.status = StatusSaving
	s.commitSeq++
	seq := s.commitSeq
	id := s.baseline.ID
	go s.runUpdate(seq, id, patch)
}

func (s *Session) runCreate(seq uint64, title, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommitTimeout)
	defer cancel()

	rec, err := s.store.Create(ctx, title, content)
	s.finishCommit(seq, rec, err)
}

func (s *Session) runUpdate(seq uint64, id string, patch Patch) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommitTimeout)
	defer cancel()

	rec, err := s.store.Update(ctx, id, patch)
	s.finishCommit(seq, rec, err)
}

// finishCommit applies a commit outcome. Stale completions (superseded
// or after Close) are dropped without touching session state.
func (s *Session) finishCommit(seq uint64, rec *Record, err error) {
	s.mu.Lock()

	if s.closed || seq != s.commitSeq || s.status != StatusSaving {
		s.mu.Unlock()
		return
	}

	if err != nil {
		// Working values are never rolled back on failure.
		s.status = StatusError
		s.lastErr = err
		if s.log != nil {
			s.log.Warn("draft commit failed", "error", err)
		}
		snap := s.snapshotLocked(false)
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	// Adopt the persisted record; for a first create this captures the
	// generated id so every later commit becomes an update against it.
	b := *rec
	s.baseline = &b
	s.lastSavedAt = s.cfg.Clock()
	s.lastErr = nil

	if s.dirtyLocked() {
		// Edits arrived while the commit was in flight.
		s.status = StatusPending
		s.sched.Arm(s.cfg.Debounce)
	} else {
		s.status = StatusClean
	}

	snap := s.snapshotLocked(true)
	s.mu.Unlock()
	s.notify(snap)
}

// dirtyLocked reports whether working values differ from baseline.
// Requires s.mu held.
func (s *Session) dirtyLocked() bool {
	if s.baseline == nil {
		return s.workingTitle != "" || s.workingContent != ""
	}
	return s.workingTitle != s.baseline.Title || s.workingContent != s.baseline.Content
}

// diffLocked builds the sparse payload: exactly the fields differing
// from baseline at this moment. Requires s.mu held and baseline != nil.
func (s *Session) diffLocked() Patch {
	var p Patch
	if s.workingTitle != s.baseline.Title {
		t := s.workingTitle
		p.Title = &t
	}
	if s.workingContent != s.baseline.Content {
		c := s.workingContent
		p.Content = &c
	}
	return p
}

func (s *Session) snapshotLocked(justSaved bool) Snapshot {
	snap := Snapshot{
		Status:      s.status,
		Dirty:       s.dirtyLocked(),
		JustSaved:   justSaved,
		LastSavedAt: s.lastSavedAt,
		Err:         s.lastErr,
	}
	if s.baseline != nil {
		snap.NoteID = s.baseline.ID
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}
