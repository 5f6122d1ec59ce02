package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ecommerce-copilot/api/internal/domain"
)

const (
	eventOrderLookupFailed    = "order.lookup_failed"
	eventOrderInvalidIdentity = "order.invalid_identifier"
)

// OrderResolverDeps bundles the collaborators required to construct an order resolver.
type OrderResolverDeps struct {
	Commerce CommerceGateway
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type orderResolver struct {
	commerce CommerceGateway
	logger   func(context.Context, string, map[string]any)
}

// NewOrderResolver wires dependencies into a concrete OrderResolver implementation.
func NewOrderResolver(deps OrderResolverDeps) (OrderResolver, error) {
	if deps.Commerce == nil {
		return nil, errors.New("order resolver: commerce gateway is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderResolver{commerce: deps.Commerce, logger: logger}, nil
}

// Resolve locates at most one order for the query. An email is tried first:
// the customer's recent orders are searched for the requested number, falling
// back to the most recent order when no number was given. Without an email the
// number is looked up by name and then by scanning recent store orders.
// Upstream failures degrade to a nil order so callers can answer with a
// not-found message instead of an error page.
func (r *orderResolver) Resolve(ctx context.Context, query OrderQuery) (*domain.Order, error) {
	var ident *domain.OrderIdentifier
	if raw := strings.TrimSpace(query.OrderNumber); raw != "" {
		parsed, err := domain.ParseOrderIdentifier(raw)
		if err != nil {
			r.logger(ctx, eventOrderInvalidIdentity, map[string]any{"order_number": raw})
		} else {
			ident = &parsed
		}
	}

	email := strings.TrimSpace(query.Email)
	if email != "" {
		return r.resolveByEmail(ctx, email, ident), nil
	}
	if ident != nil {
		return r.resolveByNumber(ctx, *ident), nil
	}
	return nil, nil
}

func (r *orderResolver) resolveByEmail(ctx context.Context, email string, ident *domain.OrderIdentifier) *domain.Order {
	customer, err := r.commerce.FindCustomerByEmail(ctx, email)
	if err != nil {
		r.logger(ctx, eventOrderLookupFailed, map[string]any{"step": "customer_search", "error": err.Error()})
		return nil
	}
	if customer == nil {
		return nil
	}
	orders, err := r.commerce.OrdersByCustomer(ctx, customer.ID)
	if err != nil {
		r.logger(ctx, eventOrderLookupFailed, map[string]any{"step": "orders_by_customer", "error": err.Error()})
		return nil
	}
	if len(orders) == 0 {
		return nil
	}
	if ident != nil {
		// Numeric matches win over display-name matches.
		for i := range orders {
			if orders[i].OrderNumber == ident.Numeric {
				return &orders[i]
			}
		}
		for i := range orders {
			if orders[i].Name == ident.CanonicalName {
				return &orders[i]
			}
		}
		return nil
	}
	return &orders[0]
}

func (r *orderResolver) resolveByNumber(ctx context.Context, ident domain.OrderIdentifier) *domain.Order {
	orders, err := r.commerce.OrdersByName(ctx, ident.CanonicalName)
	if err != nil {
		r.logger(ctx, eventOrderLookupFailed, map[string]any{"step": "orders_by_name", "error": err.Error()})
	} else if len(orders) > 0 {
		return &orders[0]
	}

	recent, err := r.commerce.RecentOrders(ctx)
	if err != nil {
		r.logger(ctx, eventOrderLookupFailed, map[string]any{"step": "recent_orders", "error": err.Error()})
		return nil
	}
	for i := range recent {
		if recent[i].OrderNumber == ident.Numeric {
			return &recent[i]
		}
	}
	return nil
}
