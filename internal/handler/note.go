package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/personal-library/internal/service"
)

// NoteHandler manages CRUD operations for reading notes.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// HandleList returns notes, newest first, optionally filtered to one book.
//
// HTTP: GET /api/notes?bookId=...&limit=20&offset=0
func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	bookID := r.URL.Query().Get("bookId")

	notes, err := h.notes.List(r.Context(), bookID, limit, offset)
	if err != nil {
		h.logger.Error("listing notes failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

// HandleGetByID returns a single note.
//
// HTTP: GET /api/notes/{id}
func (h *NoteHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleCreate attaches a new note to a book.
//
// HTTP: POST /api/notes (auth required)
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid note JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	note, err := h.notes.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// HandleUpdate replaces an existing note.
//
// HTTP: PUT /api/notes/{id} (auth required)
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	note, err := h.notes.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// HandleDelete removes a note.
//
// HTTP: DELETE /api/notes/{id} (auth required)
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
