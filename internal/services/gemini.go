package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"flashnotes-backend/internal/models"
)

// textGenerator is the seam between the service and the Gemini client.
// Tests substitute a stub.
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractText(resp), nil
}

type GeminiService struct {
	apiKey    string
	modelName string
	logger    *zap.Logger

	mu  sync.Mutex
	gen textGenerator
}

func NewGeminiService(apiKey, modelName string, logger *zap.Logger) *GeminiService {
	return &GeminiService{apiKey: apiKey, modelName: modelName, logger: logger}
}

func (s *GeminiService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gen.(*geminiGenerator); ok {
		g.client.Close()
	}
}

// generator initializes the Gemini client on first use so that a
// missing API key fails the first generation attempt, not startup.
func (s *GeminiService) generator(ctx context.Context) (textGenerator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != nil {
		return s.gen, nil
	}
	if s.apiKey == "" {
		return nil, &ConfigurationError{Message: "GEMINI_API_KEY or GOOGLE_AI_API_KEY environment variable is required"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(s.modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = flashcardSchema()

	s.gen = &geminiGenerator{client: client, model: model}
	return s.gen, nil
}

// GenerateFlashcards produces count question/answer pairs from the note
// title and content. Under-generation is tolerated with a warning;
// over-generation is truncated to count in provider order.
func (s *GeminiService) GenerateFlashcards(ctx context.Context, title, content string, count int) (*models.FlashcardResponse, error) {
	prompt := buildFlashcardPrompt(title, content, count)

	result, err := s.run(ctx, prompt)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		s.logger.Error("Error generating flashcards", zap.Error(err))
		return nil, &GenerationFailedError{Message: "Failed to generate flashcards. Please try again."}
	}

	s.normalize(result, count)
	return result, nil
}

// GenerateMoreFlashcards is the same flow, but the prompt lists the
// existing questions and asks the provider not to duplicate them.
// Uniqueness is advisory only; nothing checks the result against
// existingQuestions. An empty result is an error on this path.
func (s *GeminiService) GenerateMoreFlashcards(ctx context.Context, title, content string, existingQuestions []string, count int) (*models.FlashcardResponse, error) {
	prompt := buildMoreFlashcardsPrompt(title, content, existingQuestions, count)

	result, err := s.run(ctx, prompt)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		s.logger.Error("Error generating additional flashcards", zap.Error(err))
		return nil, &GenerationFailedError{Message: "Failed to generate additional flashcards. Please try again."}
	}

	if len(result.Flashcards) == 0 {
		return nil, &NoCardsGeneratedError{}
	}

	s.normalize(result, count)
	return result, nil
}

// run performs one schema-constrained Gemini call and parses the result.
func (s *GeminiService) run(ctx context.Context, prompt string) (*models.FlashcardResponse, error) {
	gen, err := s.generator(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return parseFlashcardResponse(raw)
}

func (s *GeminiService) normalize(result *models.FlashcardResponse, count int) {
	if len(result.Flashcards) < count {
		s.logger.Warn("Gemini provided fewer cards than requested",
			zap.Int("expected", count),
			zap.Int("got", len(result.Flashcards)))
	}
	if len(result.Flashcards) > count {
		result.Flashcards = result.Flashcards[:count]
	}
}

// parseFlashcardResponse re-validates the provider output. The response
// schema sent to Gemini is advisory, not a guarantee.
func parseFlashcardResponse(raw string) (*models.FlashcardResponse, error) {
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	result := &models.FlashcardResponse{}
	if err := json.Unmarshal([]byte(raw), result); err != nil {
		return nil, &GenerationFormatError{Detail: err.Error()}
	}
	if result.Flashcards == nil {
		return nil, &GenerationFormatError{Detail: "missing flashcards array"}
	}
	return result, nil
}

func flashcardSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"flashcards": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": {Type: genai.TypeString},
						"answer":   {Type: genai.TypeString},
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: []string{"flashcards"},
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildFlashcardPrompt(title, content string, count int) string {
	var b strings.Builder

	b.WriteString("You are an AI study assistant that creates flashcards from study notes.\n\n")
	fmt.Fprintf(&b, "Create exactly %d high-quality flashcards from the following study material:\n\n", count)
	fmt.Fprintf(&b, "Title: %s\nContent: %s\n\n", title, content)
	b.WriteString(`Guidelines:
- Create clear, concise questions that test understanding
- Provide comprehensive but not overly long answers
- Cover different aspects and details from the material
- Make questions progressively cover the content thoroughly
- Ensure questions are study-friendly and educational
- Mix different question types (definition, comparison, explanation, application)

Respond with JSON in this exact format:
{
  "flashcards": [
    {"question": "What is...", "answer": "The answer is..."},
    {"question": "How does...", "answer": "It works by..."}
  ]
}`)

	return b.String()
}

func buildMoreFlashcardsPrompt(title, content string, existingQuestions []string, count int) string {
	var b strings.Builder

	b.WriteString("You are an AI study assistant that creates additional flashcards from study notes.\n\n")
	fmt.Fprintf(&b, "Create exactly %d NEW flashcards from the following study material. Make sure these are DIFFERENT from the existing questions.\n\n", count)
	fmt.Fprintf(&b, "Title: %s\nContent: %s\n\n", title, content)
	fmt.Fprintf(&b, "Existing questions to avoid duplicating:\n- %s\n\n", strings.Join(existingQuestions, "\n- "))
	b.WriteString(`Guidelines:
- Create completely new questions not covered by existing ones
- Focus on different aspects, details, or perspectives from the material
- Maintain the same quality and educational value
- Ensure questions complement the existing set
- Mix different question types and difficulty levels

Respond with JSON in this exact format:
{
  "flashcards": [
    {"question": "What is...", "answer": "The answer is..."},
    {"question": "How does...", "answer": "It works by..."}
  ]
}`)

	return b.String()
}
