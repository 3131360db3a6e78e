package notes

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"note-draft/cmd/server/testutil"
	"note-draft/internal/services/notes"
	"note-draft/internal/services/summarize"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	notesEndpoint = "/api/v1/notes"
	testJWTSecret = "test-secret-key-with-32-plus-characters"
)

// MockNotesService mocks the notes service
type MockNotesService struct {
	mock.Mock
}

func (m *MockNotesService) Create(ctx context.Context, userID bson.ObjectID, req notes.CreateNoteRequest) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) List(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.ListNotesResponse), args.Error(1)
}

func (m *MockNotesService) Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) Update(ctx context.Context, userID, noteID bson.ObjectID, req notes.UpdateNoteRequest) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, noteID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	args := m.Called(ctx, userID, noteID)
	return args.Error(0)
}

// MockSummarizer mocks the summarize service
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) Summarize(ctx context.Context, userID, noteID bson.ObjectID, format summarize.Format) (*summarize.SummaryResponse, error) {
	args := m.Called(ctx, userID, noteID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summarize.SummaryResponse), args.Error(1)
}

// NotesTestSetup contains common test setup data
type NotesTestSetup struct {
	MockService    *MockNotesService
	MockSummarizer *MockSummarizer
	App            *fiber.App
	UserID         bson.ObjectID
	Token          string
}

// SetupNotesTest creates a Fiber app with the notes routes mounted
// behind real JWT middleware and mocked services.
func SetupNotesTest(t *testing.T) *NotesTestSetup {
	t.Helper()

	mockService := &MockNotesService{}
	mockSummarizer := &MockSummarizer{}
	app := testutil.CreateTestApp(t)
	v := testutil.CreateTestValidator(t)

	h := NewHandlers(mockService, mockSummarizer, v)

	jwtMW := testutil.SetupJWTMiddleware(testJWTSecret)
	grp := app.Group("/api/v1/notes", jwtMW)
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Post("/:id/summarize", h.Summarize)

	userID := bson.NewObjectID()
	token, err := testutil.CreateTestJWT(userID.Hex(), []byte(testJWTSecret), time.Hour)
	require.NoError(t, err)

	return &NotesTestSetup{
		MockService:    mockService,
		MockSummarizer: mockSummarizer,
		App:            app,
		UserID:         userID,
		Token:          token,
	}
}

func sampleNote(ownerID bson.ObjectID) *notes.Note {
	now := time.Now().UTC()
	return &notes.Note{
		ID:        bson.NewObjectID(),
		OwnerID:   ownerID,
		Title:     "Sprint retro",
		Content:   "<p>went well</p>",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateNoteHandler(t *testing.T) {
	t.Run("creates note", func(t *testing.T) {
		setup := SetupNotesTest(t)
		note := sampleNote(setup.UserID)

		setup.MockService.On("Create", mock.Anything, setup.UserID,
			notes.CreateNoteRequest{Title: "Sprint retro", Content: "<p>went well</p>"}).
			Return(&notes.NoteResponse{Note: note}, nil)

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint,
			map[string]string{"title": "Sprint retro", "content": "<p>went well</p>"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)

		var body notes.NoteResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, note.ID, body.Note.ID)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		setup := SetupNotesTest(t)

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint,
			map[string]string{"content": "body only"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		setup.MockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		setup := SetupNotesTest(t)

		req := testutil.CreateJSONRequest(http.MethodPost, notesEndpoint,
			map[string]string{"title": "x"})
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})
}

func TestListNotesHandler(t *testing.T) {
	setup := SetupNotesTest(t)
	note := sampleNote(setup.UserID)

	setup.MockService.On("List", mock.Anything, setup.UserID).
		Return(&notes.ListNotesResponse{Notes: []*notes.Note{note}}, nil)

	req := testutil.CreateAuthenticatedRequest(http.MethodGet, notesEndpoint, nil, setup.Token)
	resp, err := setup.App.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body notes.ListNotesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Notes, 1)
	assert.Equal(t, note.ID, body.Notes[0].ID)
}

func TestGetNoteHandler(t *testing.T) {
	t.Run("returns note", func(t *testing.T) {
		setup := SetupNotesTest(t)
		note := sampleNote(setup.UserID)

		setup.MockService.On("Get", mock.Anything, setup.UserID, note.ID).
			Return(&notes.NoteResponse{Note: note}, nil)

		req := testutil.CreateAuthenticatedRequest(http.MethodGet, notesEndpoint+"/"+note.ID.Hex(), nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("missing note is 404", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockService.On("Get", mock.Anything, setup.UserID, noteID).
			Return(nil, notes.ErrNoteNotFound)

		req := testutil.CreateAuthenticatedRequest(http.MethodGet, notesEndpoint+"/"+noteID.Hex(), nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("foreign note is 403", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockService.On("Get", mock.Anything, setup.UserID, noteID).
			Return(nil, notes.ErrNotOwner)

		req := testutil.CreateAuthenticatedRequest(http.MethodGet, notesEndpoint+"/"+noteID.Hex(), nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		setup := SetupNotesTest(t)

		req := testutil.CreateAuthenticatedRequest(http.MethodGet, notesEndpoint+"/not-an-id", nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		setup.MockService.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateNoteHandler(t *testing.T) {
	t.Run("applies sparse patch", func(t *testing.T) {
		setup := SetupNotesTest(t)
		note := sampleNote(setup.UserID)
		note.Title = "Renamed"

		setup.MockService.On("Update", mock.Anything, setup.UserID, note.ID,
			mock.MatchedBy(func(req notes.UpdateNoteRequest) bool {
				return req.Title != nil && *req.Title == "Renamed" && req.Content == nil
			})).
			Return(&notes.NoteResponse{Note: note}, nil)

		req := testutil.CreateAuthenticatedRequest(http.MethodPatch, notesEndpoint+"/"+note.ID.Hex(),
			map[string]string{"title": "Renamed"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		setup.MockService.AssertExpectations(t)
	})

	t.Run("empty title is 422", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockService.On("Update", mock.Anything, setup.UserID, noteID, mock.Anything).
			Return(nil, notes.ErrTitleRequired)

		req := testutil.CreateAuthenticatedRequest(http.MethodPatch, notesEndpoint+"/"+noteID.Hex(),
			map[string]string{"title": "   "}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func TestDeleteNoteHandler(t *testing.T) {
	t.Run("deletes note", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockService.On("Delete", mock.Anything, setup.UserID, noteID).Return(nil)

		req := testutil.CreateAuthenticatedRequest(http.MethodDelete, notesEndpoint+"/"+noteID.Hex(), nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
	})

	t.Run("missing note is 404", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockService.On("Delete", mock.Anything, setup.UserID, noteID).
			Return(notes.ErrNoteNotFound)

		req := testutil.CreateAuthenticatedRequest(http.MethodDelete, notesEndpoint+"/"+noteID.Hex(), nil, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestSummarizeNoteHandler(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockSummarizer.On("Summarize", mock.Anything, setup.UserID, noteID, summarize.FormatExecutive).
			Return(&summarize.SummaryResponse{Content: "tl;dr", Format: "executive"}, nil)

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint+"/"+noteID.Hex()+"/summarize",
			map[string]string{"format": "executive"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body summarize.SummaryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "tl;dr", body.Content)
	})

	t.Run("bad format fails validation", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint+"/"+noteID.Hex()+"/summarize",
			map[string]string{"format": "haiku"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		setup.MockSummarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty content is 422", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockSummarizer.On("Summarize", mock.Anything, setup.UserID, noteID, summarize.FormatExecutive).
			Return(nil, summarize.ErrEmptyContent)

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint+"/"+noteID.Hex()+"/summarize",
			map[string]string{"format": "executive"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})

	t.Run("provider failure is 502", func(t *testing.T) {
		setup := SetupNotesTest(t)
		noteID := bson.NewObjectID()

		setup.MockSummarizer.On("Summarize", mock.Anything, setup.UserID, noteID, summarize.FormatExecutive).
			Return(nil, summarize.ErrSummarizeFailed)

		req := testutil.CreateAuthenticatedRequest(http.MethodPost, notesEndpoint+"/"+noteID.Hex()+"/summarize",
			map[string]string{"format": "executive"}, setup.Token)
		resp, err := setup.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 502, resp.StatusCode)
	})
}
