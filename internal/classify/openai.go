package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You classify social network accounts into interest categories.
You receive a JSON object with a "taxonomy" of category names and a list of
"subjects" with their username, display name, and bio. For each subject, pick
the single best-fitting category from the taxonomy and estimate your confidence
between 0 and 1. Reply with a JSON object of the form
{"results": [{"username": "...", "category": "...", "confidence": 0.0}]}.
Use category names exactly as given. Omit subjects you cannot classify.`

// OpenAIClassifier is a Classifier backed by the OpenAI chat API.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIClassifier builds a classifier from the OPENAI_API_KEY and
// OPENAI_MODEL environment variables. The model defaults to gpt-4o-mini.
func NewOpenAIClassifier(logger *slog.Logger) (*OpenAIClassifier, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
		logger.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}

	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

// Classify implements Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("classifying batch", "subjects", len(req.Subjects), "model", c.model)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	var out Response
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}
