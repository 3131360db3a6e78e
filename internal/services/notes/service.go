package notes

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"note-draft/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles notes business logic.
//
// Every operation takes the acting user's id and verifies that the
// record being touched belongs to that user. Existence is checked
// before ownership so the two failures stay distinct error kinds.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService creates a new notes service
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// CreateNoteRequest represents a note creation request
type CreateNoteRequest struct {
	Title   string `json:"title" validate:"required" example:"Meeting Notes"`
	Content string `json:"content" example:"<p>Remember to discuss the quarterly targets</p>"`
}

// UpdateNoteRequest represents a sparse note update request.
// Absent fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1" example:"Updated Meeting Notes"`
	Content *string `json:"content,omitempty" example:"<p>Updated content</p>"`
}

// NoteResponse represents a single note response
type NoteResponse struct {
	Note *Note `json:"note"`
}

// ListNotesResponse represents a list of notes response
type ListNotesResponse struct {
	Notes []*Note `json:"notes"`
}

// Create creates a new note owned by the acting user.
// The title must be non-empty; validation runs before any storage write.
func (s *Service) Create(ctx context.Context, actingUserID bson.ObjectID, req CreateNoteRequest) (*NoteResponse, error) {
	title := sanitize.Clean(req.Title)
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}

	now := time.Now().UTC()
	note := &Note{
		ID:        bson.NewObjectID(),
		OwnerID:   actingUserID,
		Title:     title,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, note); err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", actingUserID.Hex())
		return nil, ErrCreateNote
	}

	return &NoteResponse{Note: note}, nil
}

// List retrieves all notes owned by the acting user, newest update first.
func (s *Service) List(ctx context.Context, actingUserID bson.ObjectID) (*ListNotesResponse, error) {
	list, err := s.repo.ListByOwner(ctx, actingUserID)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", actingUserID.Hex())
		return nil, ErrListNotes
	}

	// The repository already sorts, but the ordering is part of this
	// service's contract, so it is not left to adapter behavior.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	if list == nil {
		list = []*Note{}
	}

	return &ListNotesResponse{Notes: list}, nil
}

// Get retrieves a single note owned by the acting user.
func (s *Service) Get(ctx context.Context, actingUserID, noteID bson.ObjectID) (*NoteResponse, error) {
	note, err := s.authorize(ctx, actingUserID, noteID)
	if err != nil {
		return nil, err
	}
	return &NoteResponse{Note: note}, nil
}

// Update applies a sparse update to a note owned by the acting user.
// UpdatedAt is bumped unconditionally, even when the supplied fields
// match the stored values; callers are expected to diff before sending.
func (s *Service) Update(ctx context.Context, actingUserID, noteID bson.ObjectID, req UpdateNoteRequest) (*NoteResponse, error) {
	patch := sanitizedPatch(req)

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleRequired
	}

	if _, err := s.authorize(ctx, actingUserID, noteID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateFields(ctx, noteID, patch)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note vanished during update", "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
		return nil, ErrUpdateNote
	}

	return &NoteResponse{Note: updated}, nil
}

// Delete removes a note owned by the acting user.
// Deleting a nonexistent or unowned id fails the same way Get does.
func (s *Service) Delete(ctx context.Context, actingUserID, noteID bson.ObjectID) error {
	if _, err := s.authorize(ctx, actingUserID, noteID); err != nil {
		return err
	}

	if err := s.repo.Remove(ctx, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note vanished during delete", "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
			return ErrNoteNotFound
		}
		s.log.Error(ErrDeleteNote.Error(), "error", err, "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
		return ErrDeleteNote
	}

	return nil
}

// authorize fetches the note and verifies ownership.
// Existence first, ownership second: the caller can tell "no such note"
// from "not yours", and neither is reachable without a valid session.
func (s *Service) authorize(ctx context.Context, actingUserID, noteID bson.ObjectID) (*Note, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found", "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrGetNote.Error(), "error", err, "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
		return nil, ErrGetNote
	}

	if note.OwnerID != actingUserID {
		s.log.Warn("ownership check failed", "user_id", actingUserID.Hex(), "note_id", noteID.Hex())
		return nil, ErrNotOwner
	}

	return note, nil
}

// sanitizedPatch creates a NotePatch with a sanitized title.
// Content stays untouched: it is the editor's opaque markup payload.
func sanitizedPatch(req UpdateNoteRequest) NotePatch {
	patch := NotePatch(req)

	if patch.Title != nil {
		sanitized := sanitize.Clean(*patch.Title)
		patch.Title = &sanitized
	}

	return patch
}
