package models

import (
	"time"

	"github.com/google/uuid"
)

type Flashcard struct {
	ID        uuid.UUID `json:"id"`
	NoteID    uuid.UUID `json:"noteId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CardIndex int       `json:"cardIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// CardContent is a generated question/answer pair before an ID and card
// index have been assigned.
type CardContent struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardResponse is the normalized shape returned by the generation
// service. It is transient and never persisted as-is.
type FlashcardResponse struct {
	Flashcards []CardContent `json:"flashcards"`
}

type CreateNoteResponse struct {
	Note       *Note        `json:"note"`
	Flashcards []*Flashcard `json:"flashcards"`
}
