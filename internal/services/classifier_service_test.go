package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecommerce-copilot/api/internal/domain"
)

func newClassifierServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func completionBody(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestClassifyEmptyMessageSkipsEndpoint(t *testing.T) {
	called := false
	server := newClassifierServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	classifier, err := NewClassifierService(ClassifierServiceDeps{
		Endpoint: server.URL,
		Model:    "llama3-8b-8192",
	})
	if err != nil {
		t.Fatalf("NewClassifierService: %v", err)
	}

	got := classifier.Classify(context.Background(), "   ")
	if called {
		t.Fatalf("endpoint must not be called for an empty message")
	}
	if got.Sentiment != domain.SentimentNeutral || got.Intent != "general" {
		t.Fatalf("got %+v, want neutral/general", got)
	}
}

func TestClassifyParsesModelOutput(t *testing.T) {
	server := newClassifierServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization header = %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3-8b-8192" {
			t.Fatalf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "Where is my order") {
			t.Fatalf("prompt should embed the customer message, got %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(`{"sentiment":"negative","intent":"track_order","recommendation":"Share the tracking link."}`)))
	})

	classifier, err := NewClassifierService(ClassifierServiceDeps{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Model:    "llama3-8b-8192",
	})
	if err != nil {
		t.Fatalf("NewClassifierService: %v", err)
	}

	got := classifier.Classify(context.Background(), "Where is my order?! It's been two weeks")
	if got.Sentiment != domain.SentimentNegative {
		t.Fatalf("sentiment = %s, want negative", got.Sentiment)
	}
	if got.Intent != "track_order" {
		t.Fatalf("intent = %s, want track_order", got.Intent)
	}
	if got.Recommendation != "Share the tracking link." {
		t.Fatalf("recommendation = %q", got.Recommendation)
	}
}

func TestClassifyExtractsEmbeddedJSON(t *testing.T) {
	server := newClassifierServer(t, func(w http.ResponseWriter, r *http.Request) {
		content := "Sure! Here is the analysis:\n{\"sentiment\":\"positive\",\"intent\":\"stock_check\",\"recommendation\":\"Offer the restock alert.\"}\nHope that helps."
		w.Write([]byte(completionBody(content)))
	})

	classifier, err := NewClassifierService(ClassifierServiceDeps{
		Endpoint: server.URL,
		Model:    "llama3-8b-8192",
	})
	if err != nil {
		t.Fatalf("NewClassifierService: %v", err)
	}

	got := classifier.Classify(context.Background(), "do you have the blue one in stock? love this shop")
	if got.Sentiment != domain.SentimentPositive || got.Intent != "stock_check" {
		t.Fatalf("got %+v, want positive/stock_check", got)
	}
}

func TestClassifyUnparseableOutputDegrades(t *testing.T) {
	server := newClassifierServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("I cannot produce JSON for that.")))
	})

	classifier, err := NewClassifierService(ClassifierServiceDeps{
		Endpoint: server.URL,
		Model:    "llama3-8b-8192",
	})
	if err != nil {
		t.Fatalf("NewClassifierService: %v", err)
	}

	got := classifier.Classify(context.Background(), "hello")
	if got.Sentiment != domain.SentimentNeutral || got.Intent != "general" {
		t.Fatalf("got %+v, want neutral/general", got)
	}
	if got.Recommendation != recommendationUnparseable {
		t.Fatalf("recommendation = %q, want %q", got.Recommendation, recommendationUnparseable)
	}
}

func TestClassifyEndpointFailureDegrades(t *testing.T) {
	server := newClassifierServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	var logged []string
	classifier, err := NewClassifierService(ClassifierServiceDeps{
		Endpoint: server.URL,
		Model:    "llama3-8b-8192",
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})
	if err != nil {
		t.Fatalf("NewClassifierService: %v", err)
	}

	got := classifier.Classify(context.Background(), "cancel my order now")
	if got.Sentiment != domain.SentimentNeutral || got.Intent != "general" {
		t.Fatalf("got %+v, want neutral/general", got)
	}
	if got.Recommendation != recommendationUnavailable {
		t.Fatalf("recommendation = %q, want %q", got.Recommendation, recommendationUnavailable)
	}
	if len(logged) != 1 || logged[0] != eventClassifierFailed {
		t.Fatalf("logged events = %v, want [%s]", logged, eventClassifierFailed)
	}
}
