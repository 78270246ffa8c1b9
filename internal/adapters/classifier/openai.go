package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/core"
)

// OpenAIClassifier is a Classifier implementation backed by the OpenAI chat
// API. It trades the local model artifact for a remote dependency, which is
// why prediction calls sit behind the circuit breaker.
type OpenAIClassifier struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// classificationResponse is the structured verdict requested from the model
type classificationResponse struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

const openaiPromptFormat = `You are a spam detection system. Classify the following text as spam or ham.
Respond with a JSON object containing:
- classification: string, either "spam" or "ham"
- confidence: number between 0 and 1

Text:
%s

Respond only with the JSON object and nothing else.`

// NewOpenAIClassifier creates a new OpenAI-backed classifier
func NewOpenAIClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClassifier {
	return &OpenAIClassifier{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Predict classifies the given text via the OpenAI chat API
func (c *OpenAIClassifier) Predict(ctx context.Context, text string) (*core.Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &core.PredictionError{Reason: "no usable tokens in input"}
	}

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(openaiPromptFormat, text),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &core.PredictionError{Reason: "unparseable model response", Err: err}
	}

	c.logger.Debug("OpenAI classification",
		zap.String("classification", verdict.Classification),
		zap.Float64("confidence", verdict.Confidence))

	return &core.Prediction{
		Classification: verdict.Classification,
		Confidence:     verdict.Confidence,
	}, nil
}

// parseVerdict extracts the JSON verdict from the model response, tolerating
// surrounding prose
func parseVerdict(responseText string) (*classificationResponse, error) {
	jsonStart := strings.IndexByte(responseText, '{')
	jsonEnd := strings.LastIndexByte(responseText, '}')
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var verdict classificationResponse
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	verdict.Classification = strings.ToLower(verdict.Classification)
	if !core.ValidLabel(verdict.Classification) {
		return nil, fmt.Errorf("unrecognized classification %q", verdict.Classification)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return nil, fmt.Errorf("confidence %f out of range", verdict.Confidence)
	}
	return &verdict, nil
}
