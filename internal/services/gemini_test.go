package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newStubbedService(stub textGenerator) *GeminiService {
	svc := NewGeminiService("test-key", "gemini-2.5-flash", zap.NewNop())
	svc.gen = stub
	return svc
}

func cardsJSON(n int) string {
	var b strings.Builder
	b.WriteString(`{"flashcards":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"question":"q%d","answer":"a%d"}`, i, i)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestGenerateFlashcards_ExactCount(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: cardsJSON(20)})

	result, err := svc.GenerateFlashcards(context.Background(), "Cell Biology", "Mitochondria are...", 20)
	require.NoError(t, err)
	require.Len(t, result.Flashcards, 20)
	assert.Equal(t, "q0", result.Flashcards[0].Question)
	assert.Equal(t, "a19", result.Flashcards[19].Answer)
}

func TestGenerateFlashcards_TruncatesOverCount(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: cardsJSON(25)})

	result, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)
	require.NoError(t, err)
	require.Len(t, result.Flashcards, 20)

	// First count cards in provider order
	for i, card := range result.Flashcards {
		assert.Equal(t, fmt.Sprintf("q%d", i), card.Question)
	}
}

func TestGenerateFlashcards_ToleratesUnderCount(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: cardsJSON(7)})

	result, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)
	require.NoError(t, err)
	assert.Len(t, result.Flashcards, 7)
}

func TestGenerateFlashcards_InvalidJSON(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: "not json at all"})

	_, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)

	var genErr *GenerationFailedError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Failed to generate flashcards. Please try again.", genErr.Message)
}

func TestGenerateFlashcards_MissingFlashcardsField(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: `{"cards":[]}`})

	_, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)

	var genErr *GenerationFailedError
	assert.ErrorAs(t, err, &genErr)
}

func TestGenerateFlashcards_ProviderError(t *testing.T) {
	svc := newStubbedService(&stubGenerator{err: errors.New("quota exceeded")})

	_, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)

	var genErr *GenerationFailedError
	require.ErrorAs(t, err, &genErr)
	assert.NotContains(t, genErr.Message, "quota", "internal detail must not be exposed")
}

func TestGenerateFlashcards_StripsMarkdownFences(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: "```json\n" + cardsJSON(2) + "\n```"})

	result, err := svc.GenerateFlashcards(context.Background(), "t", "c", 2)
	require.NoError(t, err)
	assert.Len(t, result.Flashcards, 2)
}

func TestGenerateFlashcards_MissingAPIKey(t *testing.T) {
	svc := NewGeminiService("", "gemini-2.5-flash", zap.NewNop())

	_, err := svc.GenerateFlashcards(context.Background(), "t", "c", 20)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "GEMINI_API_KEY")
}

func TestGenerateMoreFlashcards_EmptyResult(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: cardsJSON(0)})

	_, err := svc.GenerateMoreFlashcards(context.Background(), "t", "c", []string{"q0"}, 10)

	var noCards *NoCardsGeneratedError
	require.ErrorAs(t, err, &noCards)
	assert.Equal(t, "No additional flashcards could be generated", noCards.Error())
}

func TestGenerateMoreFlashcards_PromptListsExistingQuestions(t *testing.T) {
	stub := &stubGenerator{response: cardsJSON(5)}
	svc := newStubbedService(stub)

	existing := []string{"What is a mitochondrion?", "How does ATP synthesis work?"}
	result, err := svc.GenerateMoreFlashcards(context.Background(), "Cell Biology", "Mitochondria are...", existing, 5)
	require.NoError(t, err)
	assert.Len(t, result.Flashcards, 5)

	require.Len(t, stub.prompts, 1)
	for _, q := range existing {
		assert.Contains(t, stub.prompts[0], q)
	}
	assert.Contains(t, stub.prompts[0], "avoid duplicating")
}

func TestGenerateMoreFlashcards_TruncatesOverCount(t *testing.T) {
	svc := newStubbedService(&stubGenerator{response: cardsJSON(12)})

	result, err := svc.GenerateMoreFlashcards(context.Background(), "t", "c", []string{"q"}, 10)
	require.NoError(t, err)
	assert.Len(t, result.Flashcards, 10)
}

func TestParseFlashcardResponse_NotAnArray(t *testing.T) {
	_, err := parseFlashcardResponse(`{"flashcards":"oops"}`)

	var formatErr *GenerationFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseFlashcardResponse_EmptyArrayIsValid(t *testing.T) {
	result, err := parseFlashcardResponse(`{"flashcards":[]}`)
	require.NoError(t, err)
	assert.Empty(t, result.Flashcards)
}
