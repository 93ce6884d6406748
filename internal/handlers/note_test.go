package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flashnotes-backend/internal/handlers"
	"flashnotes-backend/internal/models"
	"flashnotes-backend/internal/repository"
	"flashnotes-backend/internal/router"
	"flashnotes-backend/internal/services"
)

type stubGenerator struct {
	cards     []models.CardContent
	moreCards []models.CardContent
	err       error
}

func (s *stubGenerator) GenerateFlashcards(ctx context.Context, title, content string, count int) (*models.FlashcardResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.FlashcardResponse{Flashcards: s.cards}, nil
}

func (s *stubGenerator) GenerateMoreFlashcards(ctx context.Context, title, content string, existingQuestions []string, count int) (*models.FlashcardResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.FlashcardResponse{Flashcards: s.moreCards}, nil
}

func makeCards(n int) []models.CardContent {
	cards := make([]models.CardContent, n)
	for i := range cards {
		cards[i] = models.CardContent{
			Question: fmt.Sprintf("q%d", i),
			Answer:   fmt.Sprintf("a%d", i),
		}
	}
	return cards
}

func newTestServer(gen handlers.FlashcardGenerator) (http.Handler, *repository.MemStore) {
	store := repository.NewMemStore()
	noteHandler := handlers.NewNoteHandler(store, gen, zap.NewNop())
	return router.New(noteHandler, "http://localhost:5173"), store
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func getPath(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreateNote_EndToEnd(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{cards: makeCards(20)})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{
		"title":   "Cell Biology",
		"content": "Mitochondria are...",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp models.CreateNoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Note == nil || resp.Note.Title != "Cell Biology" {
		t.Fatalf("Expected note with title 'Cell Biology', got %+v", resp.Note)
	}
	if len(resp.Flashcards) != 20 {
		t.Fatalf("Expected 20 flashcards, got %d", len(resp.Flashcards))
	}
	for i, card := range resp.Flashcards {
		if card.CardIndex != i {
			t.Errorf("Expected cardIndex %d, got %d", i, card.CardIndex)
		}
		if card.NoteID != resp.Note.ID {
			t.Errorf("Card %d references note %s, expected %s", i, card.NoteID, resp.Note.ID)
		}
	}
}

func TestCreateNote_ValidationErrors(t *testing.T) {
	tests := []struct {
		name          string
		body          map[string]string
		expectedField string
	}{
		{"missing title", map[string]string{"content": "some content"}, "title"},
		{"missing content", map[string]string{"title": "some title"}, "content"},
		{"empty body", map[string]string{}, "title"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(&stubGenerator{cards: makeCards(20)})

			rr := postJSON(t, h, "/api/v1/notes", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if _, ok := resp.Error.Fields[tc.expectedField]; !ok {
				t.Errorf("Expected field error for %q, got %v", tc.expectedField, resp.Error.Fields)
			}
		})
	}
}

func TestCreateNote_GenerationFailure(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{
		err: &services.GenerationFailedError{Message: "Failed to generate flashcards. Please try again."},
	})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{
		"title":   "t",
		"content": "c",
	})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Message != "Failed to generate flashcards. Please try again." {
		t.Errorf("Unexpected error message: %q", resp.Error.Message)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{})

	rr := getPath(h, "/api/v1/notes/"+uuid.New().String())
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}

func TestListNotes_NewestFirst(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{cards: makeCards(1)})

	for _, title := range []string{"first", "second", "third"} {
		rr := postJSON(t, h, "/api/v1/notes", map[string]string{"title": title, "content": "c"})
		if rr.Code != http.StatusOK {
			t.Fatalf("Failed to create note %q: %d", title, rr.Code)
		}
	}

	rr := getPath(h, "/api/v1/notes")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var notes []models.Note
	if err := json.NewDecoder(rr.Body).Decode(&notes); err != nil {
		t.Fatalf("Failed to decode notes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("Expected 3 notes, got %d", len(notes))
	}
	if notes[0].Title != "third" || notes[2].Title != "first" {
		t.Errorf("Expected newest-first ordering, got %q, %q, %q", notes[0].Title, notes[1].Title, notes[2].Title)
	}
}

func TestGenerateMore_ContinuesCardIndices(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{
		cards:     makeCards(20),
		moreCards: makeCards(5),
	})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{"title": "t", "content": "c"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Failed to create note: %d", rr.Code)
	}
	var created models.CreateNoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	rr = postJSON(t, h, fmt.Sprintf("/api/v1/notes/%s/generate-more", created.Note.ID), map[string]int{"count": 5})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var newCards []models.Flashcard
	if err := json.NewDecoder(rr.Body).Decode(&newCards); err != nil {
		t.Fatalf("Failed to decode new cards: %v", err)
	}
	if len(newCards) != 5 {
		t.Fatalf("Expected 5 new cards, got %d", len(newCards))
	}
	for i, card := range newCards {
		if card.CardIndex != 20+i {
			t.Errorf("Expected cardIndex %d, got %d", 20+i, card.CardIndex)
		}
	}
}

func TestGenerateMore_UnknownNote(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{moreCards: makeCards(5)})

	rr := postJSON(t, h, fmt.Sprintf("/api/v1/notes/%s/generate-more", uuid.New()), map[string]int{"count": 5})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}

func TestGenerateMore_CountOutOfRange(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{cards: makeCards(1), moreCards: makeCards(1)})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{"title": "t", "content": "c"})
	var created models.CreateNoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	for _, count := range []int{-1, 21, 50} {
		rr := postJSON(t, h, fmt.Sprintf("/api/v1/notes/%s/generate-more", created.Note.ID), map[string]int{"count": count})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("count=%d: expected 400, got %d", count, rr.Code)
		}
	}
}

func TestGenerateMore_EmptyBodyUsesDefaultCount(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{cards: makeCards(2), moreCards: makeCards(10)})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{"title": "t", "content": "c"})
	var created models.CreateNoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/notes/%s/generate-more", created.Note.ID), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for empty body, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/notes", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow == "" {
		t.Error("Expected Allow header on 405 response")
	}
}

func TestExportFlashcards(t *testing.T) {
	h, _ := newTestServer(&stubGenerator{cards: makeCards(3)})

	rr := postJSON(t, h, "/api/v1/notes", map[string]string{"title": "Cell Biology", "content": "c"})
	var created models.CreateNoteResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	rr = getPath(h, fmt.Sprintf("/api/v1/notes/%s/export", created.Note.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	disposition := rr.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "Cell_Biology_flashcards.txt") {
		t.Errorf("Unexpected Content-Disposition: %q", disposition)
	}

	lines := strings.Split(rr.Body.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		expected := fmt.Sprintf("q%d\ta%d", i, i)
		if line != expected {
			t.Errorf("Line %d: expected %q, got %q", i, expected, line)
		}
	}
}
