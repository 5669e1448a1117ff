package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"notesapi/internal/service"
)

// NoteHandler handles note endpoints.
type NoteHandler struct {
	noteService service.NoteService
}

// NewNoteHandler creates a new note handler.
func NewNoteHandler(noteService service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// CreateNoteRequest represents a note creation request. Any caller-supplied
// owner field is ignored; the owner is always the authenticated user.
type CreateNoteRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content"`
	IsPublic bool   `json:"is_public"`
}

// UpdateNoteRequest represents a partial note update. Absent fields are
// left unchanged.
type UpdateNoteRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=255"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"is_public"`
}

// MessageResponse carries a human-readable confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateNote godoc
// @Summary Create a note for the authenticated user
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateNoteRequest true "Note payload"
// @Success 201 {object} model.Note
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	note, err := h.noteService.CreateNote(c.Request().Context(), userID, req.Title, req.Content, req.IsPublic)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, note)
}

// ListNotes godoc
// @Summary List the authenticated user's notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Number of notes to skip" default(0)
// @Param limit query int false "Maximum number of notes to return" default(100)
// @Success 200 {array} model.Note
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	skip, limit, err := pagination(c)
	if err != nil {
		return err
	}

	notes, err := h.noteService.ListNotes(c.Request().Context(), userID, skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, notes)
}

// ListPublicNotes godoc
// @Summary List public notes across all users
// @Tags notes
// @Produce json
// @Param skip query int false "Number of notes to skip" default(0)
// @Param limit query int false "Maximum number of notes to return" default(100)
// @Success 200 {array} model.Note
// @Failure 422 {object} errors.ErrorResponse
// @Router /notes/public [get]
func (h *NoteHandler) ListPublicNotes(c echo.Context) error {
	skip, limit, err := pagination(c)
	if err != nil {
		return err
	}

	notes, err := h.noteService.ListPublicNotes(c.Request().Context(), skip, limit)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, notes)
}

// GetNote godoc
// @Summary Get a note by id
// @Description Returns the caller's own note, or a public note; private
// @Description notes of other users are reported as not found.
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} model.Note
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	noteID, err := noteIDParam(c)
	if err != nil {
		return err
	}

	note, err := h.noteService.GetNote(c.Request().Context(), userID, noteID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

// UpdateNote godoc
// @Summary Update a note the caller owns
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Param request body UpdateNoteRequest true "Fields to change"
// @Success 200 {object} model.Note
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	noteID, err := noteIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err)
	}

	note, err := h.noteService.UpdateNote(c.Request().Context(), userID, noteID, service.NoteUpdate{
		Title:    req.Title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, note)
}

// DeleteNote godoc
// @Summary Delete a note the caller owns
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	noteID, err := noteIDParam(c)
	if err != nil {
		return err
	}

	if err := h.noteService.DeleteNote(c.Request().Context(), userID, noteID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Note deleted successfully"})
}

func noteIDParam(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, badRequest("invalid note id")
	}
	return uint(id), nil
}
