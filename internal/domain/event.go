package domain

import "time"

// EventType labels the support operation an interaction event records.
type EventType string

const (
	EventTrackOrder  EventType = "TRACK_ORDER"
	EventReturnOrder EventType = "RETURN_ORDER"
	EventCancelOrder EventType = "CANCEL_ORDER"
	EventStockCheck  EventType = "STOCK_CHECK"
	EventOther       EventType = "OTHER"
)

// Sentiment is the AI-derived tone of a customer message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Classification is the classifier's reading of a free-text customer message.
type Classification struct {
	Sentiment      Sentiment `json:"sentiment"`
	Intent         string    `json:"intent"`
	Recommendation string    `json:"recommendation"`
}

// NeutralClassification is the degraded default used whenever the classifier
// is unavailable or returns an unusable payload.
func NeutralClassification(recommendation string) Classification {
	return Classification{
		Sentiment:      SentimentNeutral,
		Intent:         "general",
		Recommendation: recommendation,
	}
}

// InteractionEvent is the append-only record written after every support
// operation. Writes are best-effort; losing one never fails the request.
type InteractionEvent struct {
	ID          string         `json:"id"`
	VisitorID   string         `json:"visitorId,omitempty"`
	Email       string         `json:"email,omitempty"`
	EventType   EventType      `json:"eventType"`
	OrderNumber string         `json:"orderNumber,omitempty"`
	Status      string         `json:"status"`
	Platform    string         `json:"platform"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Sentiment   Sentiment      `json:"sentiment"`
	AINotes     string         `json:"aiNotes,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
