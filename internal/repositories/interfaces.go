// Package repositories defines persistence contracts implemented by concrete
// datastore adapters.
package repositories

import (
	"context"

	"github.com/ecommerce-copilot/api/internal/domain"
)

// EventRepository appends interaction events to the durable event log.
type EventRepository interface {
	Append(ctx context.Context, event domain.InteractionEvent) error
}
