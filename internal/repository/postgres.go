package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashnotes-backend/internal/models"
)

// PostgresStore is a durable Store implementation backed by pgx. Schema
// lives in migrations/001_initial_schema.sql.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) CreateNote(ctx context.Context, insert InsertNote) (*models.Note, error) {
	note := &models.Note{
		ID:      uuid.New(),
		Title:   insert.Title,
		Content: insert.Content,
	}

	query := `INSERT INTO notes (id, title, content) VALUES ($1, $2, $3) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, note.ID, note.Title, note.Content).Scan(&note.CreatedAt)
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (r *PostgresStore) GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	note := &models.Note{}
	query := `SELECT id, title, content, created_at FROM notes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (r *PostgresStore) GetNotes(ctx context.Context) ([]*models.Note, error) {
	query := `SELECT id, title, content, created_at FROM notes ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*models.Note, 0)
	for rows.Next() {
		note := &models.Note{}
		if err := rows.Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *PostgresStore) CreateFlashcard(ctx context.Context, insert InsertFlashcard) (*models.Flashcard, error) {
	card := &models.Flashcard{
		ID:        uuid.New(),
		NoteID:    insert.NoteID,
		Question:  insert.Question,
		Answer:    insert.Answer,
		CardIndex: insert.CardIndex,
	}

	query := `INSERT INTO flashcards (id, note_id, question, answer, card_index)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		card.ID, card.NoteID, card.Question, card.Answer, card.CardIndex,
	).Scan(&card.CreatedAt)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *PostgresStore) CreateFlashcards(ctx context.Context, inserts []InsertFlashcard) ([]*models.Flashcard, error) {
	created := make([]*models.Flashcard, 0, len(inserts))
	for _, insert := range inserts {
		card, err := r.CreateFlashcard(ctx, insert)
		if err != nil {
			return nil, err
		}
		created = append(created, card)
	}
	return created, nil
}

func (r *PostgresStore) GetFlashcardsByNoteID(ctx context.Context, noteID uuid.UUID) ([]*models.Flashcard, error) {
	query := `SELECT id, note_id, question, answer, card_index, created_at
		FROM flashcards WHERE note_id = $1 ORDER BY card_index ASC`

	rows, err := r.pool.Query(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]*models.Flashcard, 0)
	for rows.Next() {
		card := &models.Flashcard{}
		err := rows.Scan(&card.ID, &card.NoteID, &card.Question, &card.Answer, &card.CardIndex, &card.CreatedAt)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}
