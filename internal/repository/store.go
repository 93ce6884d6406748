package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"flashnotes-backend/internal/models"
)

var ErrNoteNotFound = errors.New("note not found")

type InsertNote struct {
	Title   string
	Content string
}

type InsertFlashcard struct {
	NoteID    uuid.UUID
	Question  string
	Answer    string
	CardIndex int
}

// Store is the persistence boundary for notes and flashcards. The
// in-memory implementation is the default; Postgres and Redis backed
// implementations can be substituted without touching handler logic.
// There are no update or delete operations.
type Store interface {
	CreateNote(ctx context.Context, note InsertNote) (*models.Note, error)
	GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error)
	GetNotes(ctx context.Context) ([]*models.Note, error)

	CreateFlashcard(ctx context.Context, card InsertFlashcard) (*models.Flashcard, error)
	CreateFlashcards(ctx context.Context, cards []InsertFlashcard) ([]*models.Flashcard, error)
	GetFlashcardsByNoteID(ctx context.Context, noteID uuid.UUID) ([]*models.Flashcard, error)
}
