package notes

import "errors"

// ErrNoteNotFound is returned when no note with the given id exists.
var ErrNoteNotFound = errors.New("note not found")

// ErrNotOwner is returned when the note exists but belongs to another user.
// The existence check runs first so callers can log the two cases apart.
var ErrNotOwner = errors.New("note belongs to another user")

// ErrTitleRequired is returned when a create or title update carries an empty title.
var ErrTitleRequired = errors.New("title is required")

// ErrCreateNote is returned when note creation fails.
var ErrCreateNote = errors.New("failed to create note")

// ErrUpdateNote is returned when note update fails.
var ErrUpdateNote = errors.New("failed to update note")

// ErrDeleteNote is returned when note deletion fails.
var ErrDeleteNote = errors.New("failed to delete note")

// ErrGetNote is returned when note retrieval fails.
var ErrGetNote = errors.New("failed to get note")

// ErrListNotes is returned when notes listing fails.
var ErrListNotes = errors.New("failed to list notes")

// ErrCreateNotesRepo is returned when notes repository creation fails.
var ErrCreateNotesRepo = errors.New("failed to create notes repository")
