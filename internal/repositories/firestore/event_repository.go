// Package firestore provides Firestore-backed implementations of the
// repository contracts.
package firestore

import (
	"context"
	"errors"
	"strings"

	"github.com/ecommerce-copilot/api/internal/domain"
	pfirestore "github.com/ecommerce-copilot/api/internal/platform/firestore"
)

const defaultEventsCollection = "interaction_events"

// EventRepository appends interaction events to a Firestore collection.
type EventRepository struct {
	provider   *pfirestore.Provider
	collection string
}

// NewEventRepository constructs a Firestore-backed interaction event log.
func NewEventRepository(provider *pfirestore.Provider, collection string) (*EventRepository, error) {
	if provider == nil {
		return nil, errors.New("event repository requires firestore provider")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultEventsCollection
	}
	return &EventRepository{provider: provider, collection: collection}, nil
}

// Append writes the event as a new document keyed by the event ID.
func (r *EventRepository) Append(ctx context.Context, event domain.InteractionEvent) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("events.append", err)
	}

	doc := map[string]any{
		"visitorId":   event.VisitorID,
		"email":       event.Email,
		"eventType":   string(event.EventType),
		"orderNumber": event.OrderNumber,
		"status":      event.Status,
		"platform":    event.Platform,
		"metadata":    event.Metadata,
		"sentiment":   string(event.Sentiment),
		"aiNotes":     event.AINotes,
		"createdAt":   event.CreatedAt,
	}

	if _, err := client.Collection(r.collection).Doc(event.ID).Create(ctx, doc); err != nil {
		return pfirestore.WrapError("events.append", err)
	}
	return nil
}
