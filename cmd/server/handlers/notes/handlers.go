package notes

import (
	"context"
	"errors"

	"note-draft/cmd/server/handlers/handlerutil"
	"note-draft/cmd/server/handlers/httperr"
	"note-draft/internal/services/notes"
	"note-draft/internal/services/summarize"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for notes service
type Service interface {
	Create(ctx context.Context, userID bson.ObjectID, req notes.CreateNoteRequest) (*notes.NoteResponse, error)
	List(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error)
	Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.NoteResponse, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, req notes.UpdateNoteRequest) (*notes.NoteResponse, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// Summarizer defines the interface for the summarize service
type Summarizer interface {
	Summarize(ctx context.Context, userID, noteID bson.ObjectID, format summarize.Format) (*summarize.SummaryResponse, error)
}

// Handlers contains the notes HTTP handlers
type Handlers struct {
	service    Service
	summarizer Summarizer
	validator  *validator.Validate
}

// NewHandlers creates new notes handlers
func NewHandlers(service Service, summarizer Summarizer, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:    service,
		summarizer: summarizer,
		validator:  validator,
	}
}

// Create handles note creation
// @Summary Create a new note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.CreateNoteRequest true "Create note request"
// @Success 201 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 422 {object} httperr.E
// @Router /notes [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.CreateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Create"); err != nil {
		return err
	}

	resp, err := h.service.Create(c.Context(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Create", userID, nil)
	}

	return c.Status(201).JSON(resp)
}

// List handles notes listing
// @Summary List the caller's notes, most recently updated first
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} notes.ListNotesResponse
// @Failure 401 {object} httperr.E
// @Router /notes [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.List(c.Context(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "List", userID, nil)
	}

	return c.JSON(resp)
}

// Get handles single note retrieval
// @Summary Get a note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Get")
	if err != nil {
		return err
	}

	resp, err := h.service.Get(c.Context(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Get", userID, &noteID)
	}

	return c.JSON(resp)
}

// Update handles sparse note updates
// @Summary Update a note (absent fields stay unchanged)
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.UpdateNoteRequest true "Update note request"
// @Success 200 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 422 {object} httperr.E
// @Router /notes/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Update")
	if err != nil {
		return err
	}

	var req notes.UpdateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Update"); err != nil {
		return err
	}

	resp, err := h.service.Update(c.Context(), userID, noteID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Update", userID, &noteID)
	}

	return c.JSON(resp)
}

// Delete handles note deletion
// @Summary Delete a note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 204
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Delete")
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Context(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Delete", userID, &noteID)
	}

	return c.SendStatus(204)
}

// Summarize handles AI summary generation for a persisted note
// @Summary Generate a summary of a note's saved content
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body summarize.SummarizeRequest true "Summary format"
// @Success 200 {object} summarize.SummaryResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 422 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /notes/{id}/summarize [post]
func (h *Handlers) Summarize(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Summarize")
	if err != nil {
		return err
	}

	var req summarize.SummarizeRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Summarize"); err != nil {
		return err
	}

	resp, err := h.summarizer.Summarize(c.Context(), userID, noteID, summarize.Format(req.Format))
	if err != nil {
		switch {
		case errors.Is(err, summarize.ErrUnknownFormat):
			return httperr.InvalidInput(err)
		case errors.Is(err, summarize.ErrEmptyContent):
			return httperr.Fail(httperr.E{Status: 422, Message: err.Error()})
		case errors.Is(err, summarize.ErrSummarizeFailed):
			return httperr.Fail(httperr.ErrBadGateway)
		}
		return handlerutil.HandleServiceError(err, "Summarize", userID, &noteID)
	}

	return c.JSON(resp)
}
