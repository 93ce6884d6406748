package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"flashnotes-backend/internal/models"
)

// MemStore is the default Store implementation: process-local maps with
// no persistence across restarts. Map access is lock-guarded; the
// read-generate-write window of a generate-more request is not, so two
// concurrent calls for the same note can still assign overlapping card
// indices.
type MemStore struct {
	mu         sync.RWMutex
	notes      map[uuid.UUID]*models.Note
	noteOrder  []uuid.UUID
	flashcards map[uuid.UUID]*models.Flashcard
}

func NewMemStore() *MemStore {
	return &MemStore{
		notes:      make(map[uuid.UUID]*models.Note),
		flashcards: make(map[uuid.UUID]*models.Flashcard),
	}
}

func (s *MemStore) CreateNote(ctx context.Context, insert InsertNote) (*models.Note, error) {
	note := &models.Note{
		ID:        uuid.New(),
		Title:     insert.Title,
		Content:   insert.Content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.notes[note.ID] = note
	s.noteOrder = append(s.noteOrder, note.ID)
	s.mu.Unlock()

	return note, nil
}

func (s *MemStore) GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	s.mu.RLock()
	note, ok := s.notes[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (s *MemStore) GetNotes(ctx context.Context) ([]*models.Note, error) {
	s.mu.RLock()
	notes := make([]*models.Note, 0, len(s.noteOrder))
	// Walk insertion order backwards so equal timestamps still come out
	// newest-first.
	for i := len(s.noteOrder) - 1; i >= 0; i-- {
		notes = append(notes, s.notes[s.noteOrder[i]])
	}
	s.mu.RUnlock()

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (s *MemStore) CreateFlashcard(ctx context.Context, insert InsertFlashcard) (*models.Flashcard, error) {
	card := &models.Flashcard{
		ID:        uuid.New(),
		NoteID:    insert.NoteID,
		Question:  insert.Question,
		Answer:    insert.Answer,
		CardIndex: insert.CardIndex,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.flashcards[card.ID] = card
	s.mu.Unlock()

	return card, nil
}

func (s *MemStore) CreateFlashcards(ctx context.Context, inserts []InsertFlashcard) ([]*models.Flashcard, error) {
	created := make([]*models.Flashcard, 0, len(inserts))
	for _, insert := range inserts {
		card, err := s.CreateFlashcard(ctx, insert)
		if err != nil {
			return nil, err
		}
		created = append(created, card)
	}
	return created, nil
}

func (s *MemStore) GetFlashcardsByNoteID(ctx context.Context, noteID uuid.UUID) ([]*models.Flashcard, error) {
	s.mu.RLock()
	var cards []*models.Flashcard
	for _, card := range s.flashcards {
		if card.NoteID == noteID {
			cards = append(cards, card)
		}
	}
	s.mu.RUnlock()

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].CardIndex < cards[j].CardIndex
	})
	return cards, nil
}
