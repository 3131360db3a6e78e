package summarize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"note-draft/internal/services/notes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockNoteGetter is a mock implementation of NoteGetter
type MockNoteGetter struct {
	mock.Mock
}

func (m *MockNoteGetter) Get(ctx context.Context, actingUserID, noteID bson.ObjectID) (*notes.NoteResponse, error) {
	args := m.Called(ctx, actingUserID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

// MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func noteResponse(owner bson.ObjectID, content string) *notes.NoteResponse {
	return &notes.NoteResponse{Note: &notes.Note{
		ID:        bson.NewObjectID(),
		OwnerID:   owner,
		Title:     "Quarterly planning",
		Content:   content,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}}
}

func TestSummarizeFormats(t *testing.T) {
	owner := bson.NewObjectID()
	noteID := bson.NewObjectID()

	tests := []struct {
		format       Format
		wantFragment string
	}{
		{FormatExecutive, "executive summary"},
		{FormatBulletPoints, "bullet points"},
		{FormatActionItems, "action items"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			getter := new(MockNoteGetter)
			provider := new(MockProvider)

			getter.On("Get", mock.Anything, owner, noteID).
				Return(noteResponse(owner, "<p>ship in Q3</p>"), nil)
			provider.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
				return strings.Contains(prompt, tt.wantFragment) &&
					strings.Contains(prompt, "<p>ship in Q3</p>")
			})).Return("summary text", nil)

			svc := NewService(getter, provider, silentLogger)
			resp, err := svc.Summarize(context.Background(), owner, noteID, tt.format)

			require.NoError(t, err)
			assert.Equal(t, "summary text", resp.Content)
			assert.Equal(t, string(tt.format), resp.Format)
			getter.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestSummarizeEmptyContentRejectedBeforeProvider(t *testing.T) {
	owner := bson.NewObjectID()
	noteID := bson.NewObjectID()

	getter := new(MockNoteGetter)
	provider := new(MockProvider)
	getter.On("Get", mock.Anything, owner, noteID).
		Return(noteResponse(owner, "   "), nil)

	svc := NewService(getter, provider, silentLogger)
	resp, err := svc.Summarize(context.Background(), owner, noteID, FormatExecutive)

	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Nil(t, resp)
	provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSummarizeUnknownFormat(t *testing.T) {
	svc := NewService(new(MockNoteGetter), new(MockProvider), silentLogger)

	resp, err := svc.Summarize(context.Background(), bson.NewObjectID(), bson.NewObjectID(), Format("haiku"))

	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Nil(t, resp)
}

func TestSummarizePropagatesOwnershipErrors(t *testing.T) {
	owner := bson.NewObjectID()
	noteID := bson.NewObjectID()

	tests := []struct {
		name    string
		getErr  error
		wantErr error
	}{
		{"not found", notes.ErrNoteNotFound, notes.ErrNoteNotFound},
		{"not owner", notes.ErrNotOwner, notes.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := new(MockNoteGetter)
			provider := new(MockProvider)
			getter.On("Get", mock.Anything, owner, noteID).Return(nil, tt.getErr)

			svc := NewService(getter, provider, silentLogger)
			resp, err := svc.Summarize(context.Background(), owner, noteID, FormatExecutive)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
			provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestSummarizeProviderFailure(t *testing.T) {
	owner := bson.NewObjectID()
	noteID := bson.NewObjectID()

	getter := new(MockNoteGetter)
	provider := new(MockProvider)
	getter.On("Get", mock.Anything, owner, noteID).
		Return(noteResponse(owner, "<p>text</p>"), nil)
	provider.On("Generate", mock.Anything, mock.Anything).
		Return("", errors.New("provider down")).Once()

	svc := NewService(getter, provider, silentLogger)
	resp, err := svc.Summarize(context.Background(), owner, noteID, FormatExecutive)

	assert.ErrorIs(t, err, ErrSummarizeFailed)
	assert.Nil(t, resp)
	// No internal retry: exactly one provider call.
	provider.AssertNumberOfCalls(t, "Generate", 1)
}
