package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/personal-library/internal/service"
)

// BookHandler manages CRUD operations for library books.
//
// Reads are public; writes sit behind the auth gate (wired in the server).
// The handler only parses HTTP and delegates — every rule about what makes
// a valid book lives in the service.
type BookHandler struct {
	books  *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(books *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: books, logger: logger}
}

// HandleList returns books, newest first.
//
// HTTP: GET /api/books?limit=20&offset=0
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)

	books, err := h.books.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing books failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

// HandleGetByID returns a single book.
//
// HTTP: GET /api/books/{id}
func (h *BookHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// HandleCreate saves a new book.
//
// HTTP: POST /api/books (auth required)
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid book JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	book, err := h.books.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// HandleUpdate replaces an existing book.
//
// HTTP: PUT /api/books/{id} (auth required)
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	book, err := h.books.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// HandleDelete removes a book and its notes.
//
// HTTP: DELETE /api/books/{id} (auth required)
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// paging parses limit/offset query params, tolerating absence and junk —
// the service clamps the final values anyway.
func paging(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
