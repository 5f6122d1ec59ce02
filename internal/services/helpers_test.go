package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecommerce-copilot/api/internal/domain"
)

type stubCommerceGateway struct {
	findCustomerByEmail func(ctx context.Context, email string) (*domain.Customer, error)
	ordersByCustomer    func(ctx context.Context, customerID int64) ([]domain.Order, error)
	ordersByName        func(ctx context.Context, name string) ([]domain.Order, error)
	recentOrders        func(ctx context.Context) ([]domain.Order, error)
	orderByID           func(ctx context.Context, orderID int64) (*domain.Order, error)
	variant             func(ctx context.Context, variantID int64) (*domain.Variant, error)
	cancelOrder         func(ctx context.Context, orderID int64) (json.RawMessage, error)
	refundOrder         func(ctx context.Context, orderID int64, lineItems []domain.RefundLineItem) (json.RawMessage, error)
}

func (s *stubCommerceGateway) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if s.findCustomerByEmail == nil {
		return nil, nil
	}
	return s.findCustomerByEmail(ctx, email)
}

func (s *stubCommerceGateway) OrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	if s.ordersByCustomer == nil {
		return nil, nil
	}
	return s.ordersByCustomer(ctx, customerID)
}

func (s *stubCommerceGateway) OrdersByName(ctx context.Context, name string) ([]domain.Order, error) {
	if s.ordersByName == nil {
		return nil, nil
	}
	return s.ordersByName(ctx, name)
}

func (s *stubCommerceGateway) RecentOrders(ctx context.Context) ([]domain.Order, error) {
	if s.recentOrders == nil {
		return nil, nil
	}
	return s.recentOrders(ctx)
}

func (s *stubCommerceGateway) OrderByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	if s.orderByID == nil {
		return nil, nil
	}
	return s.orderByID(ctx, orderID)
}

func (s *stubCommerceGateway) Variant(ctx context.Context, variantID int64) (*domain.Variant, error) {
	if s.variant == nil {
		return nil, nil
	}
	return s.variant(ctx, variantID)
}

func (s *stubCommerceGateway) CancelOrder(ctx context.Context, orderID int64) (json.RawMessage, error) {
	if s.cancelOrder == nil {
		return json.RawMessage(`{}`), nil
	}
	return s.cancelOrder(ctx, orderID)
}

func (s *stubCommerceGateway) RefundOrder(ctx context.Context, orderID int64, lineItems []domain.RefundLineItem) (json.RawMessage, error) {
	if s.refundOrder == nil {
		return json.RawMessage(`{}`), nil
	}
	return s.refundOrder(ctx, orderID, lineItems)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(v string) *string { return &v }

func deliveredOrder(id int64, createdAt time.Time) *domain.Order {
	return &domain.Order{
		ID:                id,
		OrderNumber:       id,
		Name:              "#1033",
		Email:             "jane@example.com",
		FinancialStatus:   domain.FinancialStatusPaid,
		FulfillmentStatus: strPtr("fulfilled"),
		TotalPrice:        "49.99",
		Currency:          "USD",
		CreatedAt:         createdAt,
		LineItems: []domain.LineItem{
			{ID: 7001, Title: "Canvas Tote", Quantity: 2, Price: "19.99"},
			{ID: 7002, Title: "Enamel Pin", Quantity: 1, Price: "10.01"},
		},
		Fulfillments: []domain.Fulfillment{
			{ID: 9001, Status: "success", ShipmentStatus: "delivered", TrackingNumber: "TRK123", TrackingURL: "https://track.example.com/TRK123"},
		},
	}
}
