package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"flashnotes-backend/internal/models"
	"flashnotes-backend/internal/repository"
	"flashnotes-backend/internal/services"
)

const (
	// Card count for an initial note submission.
	createCardCount = 20
	// Default for generate-more when the body omits count.
	defaultMoreCardCount = 10
)

// FlashcardGenerator is what the note handler needs from the generation
// service.
type FlashcardGenerator interface {
	GenerateFlashcards(ctx context.Context, title, content string, count int) (*models.FlashcardResponse, error)
	GenerateMoreFlashcards(ctx context.Context, title, content string, existingQuestions []string, count int) (*models.FlashcardResponse, error)
}

type NoteHandler struct {
	store     repository.Store
	generator FlashcardGenerator
	logger    *zap.Logger
}

func NewNoteHandler(store repository.Store, generator FlashcardGenerator, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{store: store, generator: generator, logger: logger}
}

// Create validates the note, generates its flashcards, and persists
// both. The note is not rolled back if generation fails.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := models.ValidateStruct(&req); fields != nil {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	note, err := h.store.CreateNote(r.Context(), repository.InsertNote{Title: req.Title, Content: req.Content})
	if err != nil {
		h.logger.Error("Failed to create note", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create note and flashcards", r))
		return
	}

	generated, err := h.generator.GenerateFlashcards(r.Context(), req.Title, req.Content, createCardCount)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	inserts := make([]repository.InsertFlashcard, 0, len(generated.Flashcards))
	for i, card := range generated.Flashcards {
		inserts = append(inserts, repository.InsertFlashcard{
			NoteID:    note.ID,
			Question:  card.Question,
			Answer:    card.Answer,
			CardIndex: i,
		})
	}

	cards, err := h.store.CreateFlashcards(r.Context(), inserts)
	if err != nil {
		h.logger.Error("Failed to store flashcards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create note and flashcards", r))
		return
	}

	writeJSON(w, http.StatusOK, models.CreateNoteResponse{Note: note, Flashcards: cards})
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.GetNotes(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch notes", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch notes", r))
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	note, err := h.store.GetNote(r.Context(), id)
	if errors.Is(err, repository.ErrNoteNotFound) {
		handleServiceError(w, r, &services.NotFoundError{Message: "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to fetch note", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch note", r))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) GetFlashcards(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	cards, err := h.store.GetFlashcardsByNoteID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to fetch flashcards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch flashcards", r))
		return
	}

	writeJSON(w, http.StatusOK, cards)
}

// GenerateMore appends non-duplicate flashcards to an existing note.
// Existing questions are read from storage and passed to the prompt;
// new card indices continue from the current card count. Two concurrent
// calls for the same note can read the same count and collide on
// indices; that race is documented, not guarded.
func (h *NoteHandler) GenerateMore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	var req models.GenerateMoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := models.ValidateStruct(&req); fields != nil {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	count := req.Count
	if count == 0 {
		count = defaultMoreCardCount
	}

	note, err := h.store.GetNote(r.Context(), id)
	if errors.Is(err, repository.ErrNoteNotFound) {
		handleServiceError(w, r, &services.NotFoundError{Message: "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to fetch note", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to generate more flashcards", r))
		return
	}

	existing, err := h.store.GetFlashcardsByNoteID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to fetch existing flashcards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to generate more flashcards", r))
		return
	}

	existingQuestions := make([]string, 0, len(existing))
	for _, card := range existing {
		existingQuestions = append(existingQuestions, card.Question)
	}

	generated, err := h.generator.GenerateMoreFlashcards(r.Context(), note.Title, note.Content, existingQuestions, count)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	inserts := make([]repository.InsertFlashcard, 0, len(generated.Flashcards))
	for i, card := range generated.Flashcards {
		inserts = append(inserts, repository.InsertFlashcard{
			NoteID:    note.ID,
			Question:  card.Question,
			Answer:    card.Answer,
			CardIndex: len(existing) + i,
		})
	}

	created, err := h.store.CreateFlashcards(r.Context(), inserts)
	if err != nil {
		h.logger.Error("Failed to store flashcards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to generate more flashcards", r))
		return
	}

	// New cards only; the client merges them into its set
	writeJSON(w, http.StatusOK, created)
}

// Export serves the note's flashcards as a tab-separated file for
// spaced-repetition tools.
func (h *NoteHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid note ID", r))
		return
	}

	note, err := h.store.GetNote(r.Context(), id)
	if errors.Is(err, repository.ErrNoteNotFound) {
		handleServiceError(w, r, &services.NotFoundError{Message: "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to fetch note", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to export flashcards", r))
		return
	}

	cards, err := h.store.GetFlashcardsByNoteID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to fetch flashcards", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to export flashcards", r))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(note.Title)))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, services.AnkiExport(cards))
}
