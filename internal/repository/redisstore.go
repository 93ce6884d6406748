package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flashnotes-backend/internal/models"
)

const notesByCreatedKey = "notes:by_created_at"

// RedisStore keeps notes and flashcards as JSON values with two sorted
// set indexes: one over all notes scored by creation time, one per note
// over its cards scored by card index.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func noteKey(id uuid.UUID) string      { return fmt.Sprintf("note:%s", id) }
func flashcardKey(id uuid.UUID) string { return fmt.Sprintf("flashcard:%s", id) }
func noteCardsKey(id uuid.UUID) string { return fmt.Sprintf("note:%s:cards", id) }

func (r *RedisStore) CreateNote(ctx context.Context, insert InsertNote) (*models.Note, error) {
	note := &models.Note{
		ID:        uuid.New(),
		Title:     insert.Title,
		Content:   insert.Content,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(note)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, noteKey(note.ID), data, 0)
	pipe.ZAdd(ctx, notesByCreatedKey, redis.Z{
		Score:  float64(note.CreatedAt.UnixNano()),
		Member: note.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return note, nil
}

func (r *RedisStore) GetNote(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	data, err := r.client.Get(ctx, noteKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}

	note := &models.Note{}
	if err := json.Unmarshal(data, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (r *RedisStore) GetNotes(ctx context.Context) ([]*models.Note, error) {
	ids, err := r.client.ZRevRange(ctx, notesByCreatedKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	notes := make([]*models.Note, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		note, err := r.GetNote(ctx, id)
		if errors.Is(err, ErrNoteNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func (r *RedisStore) CreateFlashcard(ctx context.Context, insert InsertFlashcard) (*models.Flashcard, error) {
	card := &models.Flashcard{
		ID:        uuid.New(),
		NoteID:    insert.NoteID,
		Question:  insert.Question,
		Answer:    insert.Answer,
		CardIndex: insert.CardIndex,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(card)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, flashcardKey(card.ID), data, 0)
	pipe.ZAdd(ctx, noteCardsKey(card.NoteID), redis.Z{
		Score:  float64(card.CardIndex),
		Member: card.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return card, nil
}

func (r *RedisStore) CreateFlashcards(ctx context.Context, inserts []InsertFlashcard) ([]*models.Flashcard, error) {
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

func (r *RedisStore) GetFlashcardsByNoteID(ctx context.Context, noteID uuid.UUID) ([]*models.Flashcard, error) {
	ids, err := r.client.ZRange(ctx, noteCardsKey(noteID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	cards := make([]*models.Flashcard, 0, len(ids))
	for _, raw := range ids {
		data, err := r.client.Get(ctx, fmt.Sprintf("flashcard:%s", raw)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}

		card := &models.Flashcard{}
		if err := json.Unmarshal(data, card); err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
