package services

import (
	"context"
	"encoding/json"

	"github.com/ecommerce-copilot/api/internal/domain"
)

// CommerceGateway is the capability seam onto a commerce platform's admin API.
// Exactly one provider (Shopify) is wired today; new platforms implement this
// interface without touching callers.
type CommerceGateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	OrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error)
	OrdersByName(ctx context.Context, name string) ([]domain.Order, error)
	RecentOrders(ctx context.Context) ([]domain.Order, error)
	OrderByID(ctx context.Context, orderID int64) (*domain.Order, error)
	Variant(ctx context.Context, variantID int64) (*domain.Variant, error)
	CancelOrder(ctx context.Context, orderID int64) (json.RawMessage, error)
	RefundOrder(ctx context.Context, orderID int64, lineItems []domain.RefundLineItem) (json.RawMessage, error)
}

// OrderQuery carries the caller-supplied order coordinates. Either field may
// be empty; an empty query resolves to no order.
type OrderQuery struct {
	OrderNumber string
	Email       string
}

// OrderResolver normalizes heterogeneous order identifiers and resolves them
// to at most one order, falling back across lookup strategies.
type OrderResolver interface {
	Resolve(ctx context.Context, query OrderQuery) (*domain.Order, error)
}

// EligibilityEngine computes return and cancel eligibility from order state.
// Both checks are pure given the order and the engine's clock.
type EligibilityEngine interface {
	CheckReturnEligibility(order *domain.Order) domain.EligibilityResult
	CheckCancelEligibility(order *domain.Order) domain.EligibilityResult
}

// CancellationWorkflow sequences the cancel-then-refund mutation pair and
// reports precisely which step failed.
type CancellationWorkflow interface {
	CancelAndRefund(ctx context.Context, order *domain.Order) domain.CancellationOutcome
}

// StockQuery identifies the variant whose availability is requested.
type StockQuery struct {
	VariantID int64
	ProductID int64
}

// StockChecker reports inventory availability for a variant.
type StockChecker interface {
	CheckStock(ctx context.Context, query StockQuery) domain.StockResult
}

// Classifier derives sentiment/intent annotations from a free-text customer
// message. Implementations never fail: they degrade to a neutral default.
type Classifier interface {
	Classify(ctx context.Context, message string) domain.Classification
}

// EventRecord is the caller-facing shape handed to the event recorder after a
// support operation completes.
type EventRecord struct {
	VisitorID      string
	Email          string
	EventType      domain.EventType
	OrderNumber    string
	Succeeded      bool
	Metadata       map[string]any
	Classification domain.Classification
}

// EventRecorder appends interaction events to the external log store.
// Recording is best-effort; sink failures are logged and swallowed so they can
// never affect the HTTP response.
type EventRecorder interface {
	Record(ctx context.Context, record EventRecord)
}

// EventPublisher fans an interaction event out to a message broker for
// downstream analytics consumers.
type EventPublisher interface {
	PublishInteractionEvent(ctx context.Context, event domain.InteractionEvent) (string, error)
}
