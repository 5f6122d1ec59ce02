package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ecommerce-copilot/api/internal/domain"
	"github.com/ecommerce-copilot/api/internal/services"
)

type stubResolver struct {
	resolve func(ctx context.Context, query services.OrderQuery) (*domain.Order, error)
}

func (s *stubResolver) Resolve(ctx context.Context, query services.OrderQuery) (*domain.Order, error) {
	if s.resolve == nil {
		return nil, nil
	}
	return s.resolve(ctx, query)
}

type stubEligibility struct {
	checkReturn func(order *domain.Order) domain.EligibilityResult
	checkCancel func(order *domain.Order) domain.EligibilityResult
}

func (s *stubEligibility) CheckReturnEligibility(order *domain.Order) domain.EligibilityResult {
	if s.checkReturn == nil {
		return domain.EligibilityResult{Eligible: true, Reason: domain.ReasonOK}
	}
	return s.checkReturn(order)
}

func (s *stubEligibility) CheckCancelEligibility(order *domain.Order) domain.EligibilityResult {
	if s.checkCancel == nil {
		return domain.EligibilityResult{Eligible: true, Reason: domain.ReasonOK}
	}
	return s.checkCancel(order)
}

type stubWorkflow struct {
	cancelAndRefund func(ctx context.Context, order *domain.Order) domain.CancellationOutcome
}

func (s *stubWorkflow) CancelAndRefund(ctx context.Context, order *domain.Order) domain.CancellationOutcome {
	if s.cancelAndRefund == nil {
		return domain.CancellationOutcome{Success: true, Code: domain.OutcomeCancelAndRefundSuccess}
	}
	return s.cancelAndRefund(ctx, order)
}

type stubStock struct {
	checkStock func(ctx context.Context, query services.StockQuery) domain.StockResult
}

func (s *stubStock) CheckStock(ctx context.Context, query services.StockQuery) domain.StockResult {
	if s.checkStock == nil {
		return domain.StockResult{Success: true, Code: domain.StockCodeOK}
	}
	return s.checkStock(ctx, query)
}

type stubClassifier struct {
	classify func(ctx context.Context, message string) domain.Classification
}

func (s *stubClassifier) Classify(ctx context.Context, message string) domain.Classification {
	if s.classify == nil {
		return domain.NeutralClassification("")
	}
	return s.classify(ctx, message)
}

type stubRecorder struct {
	records []services.EventRecord
}

func (s *stubRecorder) Record(_ context.Context, record services.EventRecord) {
	s.records = append(s.records, record)
}

func newSupportDeps() (SupportHandlersDeps, *stubRecorder) {
	recorder := &stubRecorder{}
	return SupportHandlersDeps{
		Resolver:    &stubResolver{},
		Eligibility: &stubEligibility{},
		Workflow:    &stubWorkflow{},
		Stock:       &stubStock{},
		Classifier:  &stubClassifier{},
		Events:      recorder,
	}, recorder
}

func sampleOrder() *domain.Order {
	fulfilled := "fulfilled"
	return &domain.Order{
		ID:                1033,
		OrderNumber:       1033,
		Name:              "#1033",
		Email:             "jane@example.com",
		FinancialStatus:   domain.FinancialStatusPaid,
		FulfillmentStatus: &fulfilled,
		TotalPrice:        "49.99",
		Currency:          "USD",
		CreatedAt:         time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC),
		LineItems: []domain.LineItem{
			{ID: 7001, Title: "Canvas Tote", Quantity: 2, Price: "19.99"},
		},
		Fulfillments: []domain.Fulfillment{
			{ID: 9001, Status: "success", ShipmentStatus: "delivered", TrackingNumber: "TRK123"},
		},
	}
}

func decodeSupportResponse(t interface {
	Fatalf(format string, args ...any)
}, body []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return payload
}
