package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecommerce-copilot/api/internal/domain"
)

const (
	eventClassifierFailed = "classifier.request_failed"

	classifierMaxResponseBytes = 1 << 20

	recommendationEmptyMessage = "Ask the user how you can help."
	recommendationUnparseable  = "Assist the user based on their query."
	recommendationUnavailable  = "AI unavailable. Respond politely based on the user's question."
)

const classifierPromptFormat = `You are an assistant analyzing a customer chat message.

Extract ONLY this JSON:

{
  "sentiment": "positive | neutral | negative",
  "intent": "track_order | return_order | cancel_order | stock_check | general",
  "recommendation": "one short helpful suggestion for the support agent"
}

Rules:
- Output ONLY valid JSON.
- No explanations.
- No extra text.

Message: %q`

// ClassifierServiceDeps bundles the collaborators required to construct a
// message classifier.
type ClassifierServiceDeps struct {
	Endpoint   string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type classifierService struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   func(context.Context, string, map[string]any)
}

// NewClassifierService wires dependencies into a concrete Classifier
// implementation talking to an OpenAI-compatible chat completions endpoint.
func NewClassifierService(deps ClassifierServiceDeps) (Classifier, error) {
	if deps.Endpoint == "" {
		return nil, errors.New("classifier service: endpoint is required")
	}
	if deps.Model == "" {
		return nil, errors.New("classifier service: model is required")
	}
	client := deps.HTTPClient
	if client == nil {
		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &classifierService{
		endpoint: deps.Endpoint,
		apiKey:   deps.APIKey,
		model:    deps.Model,
		client:   client,
		logger:   logger,
	}, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model for sentiment, intent and an agent recommendation.
// Every failure mode, from transport errors to malformed model output,
// degrades to a neutral classification so support flows keep working without
// the model.
func (s *classifierService) Classify(ctx context.Context, message string) domain.Classification {
	if strings.TrimSpace(message) == "" {
		return domain.NeutralClassification(recommendationEmptyMessage)
	}

	content, err := s.complete(ctx, fmt.Sprintf(classifierPromptFormat, message))
	if err != nil {
		s.logger(ctx, eventClassifierFailed, map[string]any{"error": err.Error()})
		return domain.NeutralClassification(recommendationUnavailable)
	}

	if classification, ok := parseClassification(content); ok {
		return classification
	}
	return domain.NeutralClassification(recommendationUnparseable)
}

func (s *classifierService) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:    s.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, classifierMaxResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("classifier endpoint returned status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("classifier response has no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// parseClassification first tries the content as-is, then falls back to the
// outermost {...} block for models that wrap the JSON in prose.
func parseClassification(content string) (domain.Classification, bool) {
	if c, ok := decodeClassification(content); ok {
		return c, true
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if c, ok := decodeClassification(content[start : end+1]); ok {
			return c, true
		}
	}
	return domain.Classification{}, false
}

func decodeClassification(raw string) (domain.Classification, bool) {
	var c domain.Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return domain.Classification{}, false
	}
	if c.Sentiment == "" {
		c.Sentiment = domain.SentimentNeutral
	}
	if c.Intent == "" {
		c.Intent = "general"
	}
	return c, true
}
