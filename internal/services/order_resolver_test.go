package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecommerce-copilot/api/internal/domain"
)

func TestNewOrderResolverRequiresGateway(t *testing.T) {
	if _, err := NewOrderResolver(OrderResolverDeps{}); err == nil {
		t.Fatalf("expected error when gateway is missing")
	}
}

func TestResolveByEmailMatchesRequestedNumber(t *testing.T) {
	now := time.Now()
	target := deliveredOrder(1033, now)
	other := deliveredOrder(1032, now)
	other.Name = "#1032"

	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(_ context.Context, email string) (*domain.Customer, error) {
			if email != "jane@example.com" {
				t.Fatalf("unexpected email %q", email)
			}
			return &domain.Customer{ID: 42, Email: email}, nil
		},
		ordersByCustomer: func(_ context.Context, customerID int64) ([]domain.Order, error) {
			if customerID != 42 {
				t.Fatalf("unexpected customer id %d", customerID)
			}
			return []domain.Order{*other, *target}, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "jane@example.com", OrderNumber: "#1033"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != 1033 {
		t.Fatalf("got %+v, want order 1033", got)
	}
}

func TestResolveByEmailPrefersNumericMatchOverName(t *testing.T) {
	now := time.Now()
	renamed := deliveredOrder(2050, now)
	renamed.Name = "#1033"
	target := deliveredOrder(1033, now)

	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(_ context.Context, email string) (*domain.Customer, error) {
			return &domain.Customer{ID: 42, Email: email}, nil
		},
		ordersByCustomer: func(context.Context, int64) ([]domain.Order, error) {
			return []domain.Order{*renamed, *target}, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "jane@example.com", OrderNumber: "1033"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != 1033 {
		t.Fatalf("got %+v, want numeric match 1033", got)
	}
}

func TestResolveByEmailFallsBackToMostRecent(t *testing.T) {
	now := time.Now()
	latest := deliveredOrder(1040, now)
	older := deliveredOrder(1031, now)

	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(_ context.Context, email string) (*domain.Customer, error) {
			return &domain.Customer{ID: 7, Email: email}, nil
		},
		ordersByCustomer: func(context.Context, int64) ([]domain.Order, error) {
			return []domain.Order{*latest, *older}, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != 1040 {
		t.Fatalf("got %+v, want most recent order 1040", got)
	}
}

func TestResolveByEmailUnknownCustomer(t *testing.T) {
	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(context.Context, string) (*domain.Customer, error) {
			return nil, nil
		},
		ordersByCustomer: func(context.Context, int64) ([]domain.Order, error) {
			t.Fatalf("orders must not be fetched for unknown customer")
			return nil, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestResolveByEmailNumberMismatchReturnsNil(t *testing.T) {
	now := time.Now()
	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(_ context.Context, email string) (*domain.Customer, error) {
			return &domain.Customer{ID: 7, Email: email}, nil
		},
		ordersByCustomer: func(context.Context, int64) ([]domain.Order, error) {
			return []domain.Order{*deliveredOrder(1031, now)}, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "jane@example.com", OrderNumber: "9999"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for mismatched order number", got)
	}
}

func TestResolveByNumberUsesNameLookupFirst(t *testing.T) {
	now := time.Now()
	target := deliveredOrder(1033, now)

	recentCalled := false
	gateway := &stubCommerceGateway{
		ordersByName: func(_ context.Context, name string) ([]domain.Order, error) {
			if name != "#1033" {
				t.Fatalf("unexpected name %q", name)
			}
			return []domain.Order{*target}, nil
		},
		recentOrders: func(context.Context) ([]domain.Order, error) {
			recentCalled = true
			return nil, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{OrderNumber: "1033"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != 1033 {
		t.Fatalf("got %+v, want order 1033", got)
	}
	if recentCalled {
		t.Fatalf("recent orders scan must not run when name lookup matched")
	}
}

func TestResolveByNumberFallsBackToRecentScan(t *testing.T) {
	now := time.Now()
	target := deliveredOrder(1033, now)

	gateway := &stubCommerceGateway{
		ordersByName: func(context.Context, string) ([]domain.Order, error) {
			return nil, errors.New("search unavailable")
		},
		recentOrders: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{*deliveredOrder(1040, now), *target}, nil
		},
	}
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: gateway})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{OrderNumber: "#1033"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != 1033 {
		t.Fatalf("got %+v, want order 1033 from recent scan", got)
	}
}

func TestResolveInvalidIdentifierWithoutEmail(t *testing.T) {
	gateway := &stubCommerceGateway{
		ordersByName: func(context.Context, string) ([]domain.Order, error) {
			t.Fatalf("lookup must not run for a non-numeric identifier")
			return nil, nil
		},
	}
	var logged []string
	resolver, err := NewOrderResolver(OrderResolverDeps{
		Commerce: gateway,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{OrderNumber: "abc"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
	if len(logged) != 1 || logged[0] != eventOrderInvalidIdentity {
		t.Fatalf("logged events = %v, want [%s]", logged, eventOrderInvalidIdentity)
	}
}

func TestResolveEmptyQuery(t *testing.T) {
	resolver, err := NewOrderResolver(OrderResolverDeps{Commerce: &stubCommerceGateway{}})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for empty query", got)
	}
}

func TestResolveUpstreamFailureDegradesToNil(t *testing.T) {
	gateway := &stubCommerceGateway{
		findCustomerByEmail: func(context.Context, string) (*domain.Customer, error) {
			return nil, errors.New("upstream down")
		},
	}
	var logged []string
	resolver, err := NewOrderResolver(OrderResolverDeps{
		Commerce: gateway,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})
	if err != nil {
		t.Fatalf("NewOrderResolver: %v", err)
	}

	got, err := resolver.Resolve(context.Background(), OrderQuery{Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
	if len(logged) != 1 || logged[0] != eventOrderLookupFailed {
		t.Fatalf("logged events = %v, want [%s]", logged, eventOrderLookupFailed)
	}
}
