package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"note-draft/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Format selects the shape of the generated summary.
type Format string

// Supported summary formats.
const (
	FormatExecutive    Format = "executive"
	FormatBulletPoints Format = "bullet-points"
	FormatActionItems  Format = "action-items"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case FormatExecutive, FormatBulletPoints, FormatActionItems:
		return true
	}
	return false
}

// Provider is the external text-transform port. It may fail; the
// service never retries it.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NoteGetter resolves a persisted note with ownership enforced.
type NoteGetter interface {
	Get(ctx context.Context, actingUserID, noteID bson.ObjectID) (*notes.NoteResponse, error)
}

// SummarizeRequest represents a summary request
type SummarizeRequest struct {
	Format string `json:"format" validate:"required,oneof=executive bullet-points action-items" example:"executive"`
}

// SummaryResponse represents a generated summary
type SummaryResponse struct {
	Content string `json:"content" example:"The team agreed to ship in Q3."`
	Format  string `json:"format" example:"executive"`
}

// Service generates AI summaries of persisted notes.
// Only saved content is summarized: the note must resolve through the
// notes service first, so an unsaved draft can never reach the port.
type Service struct {
	notes    NoteGetter
	provider Provider
	log      *slog.Logger
}

// NewService creates a new summarize service
func NewService(notes NoteGetter, provider Provider, log *slog.Logger) *Service {
	return &Service{
		notes:    notes,
		provider: provider,
		log:      log,
	}
}

// Summarize produces a summary of the note's persisted content in the
// requested format.
func (s *Service) Summarize(ctx context.Context, actingUserID, noteID bson.ObjectID, format Format) (*SummaryResponse, error) {
	if !format.Valid() {
		return nil, ErrUnknownFormat
	}

	resp, err := s.notes.Get(ctx, actingUserID, noteID)
	if err != nil {
		return nil, err
	}
	note := resp.Note

	if strings.TrimSpace(note.Content) == "" {
		return nil, ErrEmptyContent
	}

	result, err := s.provider.Generate(ctx, buildPrompt(format, note.Content))
	if err != nil {
		s.log.Error(ErrSummarizeFailed.Error(), "error", err, "user_id", actingUserID.Hex(), "note_id", noteID.Hex(), "format", string(format))
		return nil, ErrSummarizeFailed
	}

	return &SummaryResponse{
		Content: result,
		Format:  string(format),
	}, nil
}

// buildPrompt renders the per-format instruction around the note content.
func buildPrompt(format Format, content string) string {
	var instruction string
	switch format {
	case FormatExecutive:
		instruction = "Please provide an executive summary of the following note content. " +
			"Focus on the key points and main takeaways in a concise paragraph format:"
	case FormatBulletPoints:
		instruction = "Please summarize the following note content as bullet points. " +
			"Extract the main ideas and present them as a clear, organized list:"
	case FormatActionItems:
		instruction = "Please extract action items and next steps from the following note content. " +
			"Focus on tasks, decisions, and actionable items:"
	}
	return fmt.Sprintf("%s\n\n%s", instruction, content)
}
