package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecommerce-copilot/api/internal/domain"
)

const (
	eventOrderCancelFailed = "order.cancel_failed"
	eventOrderRefundFailed = "order.refund_failed"
)

// CancellationWorkflowDeps bundles the collaborators required to construct a
// cancellation workflow.
type CancellationWorkflowDeps struct {
	Commerce    CommerceGateway
	Eligibility EligibilityEngine
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cancellationWorkflow struct {
	commerce    CommerceGateway
	eligibility EligibilityEngine
	logger      func(context.Context, string, map[string]any)
}

// NewCancellationWorkflow wires dependencies into a concrete
// CancellationWorkflow implementation.
func NewCancellationWorkflow(deps CancellationWorkflowDeps) (CancellationWorkflow, error) {
	if deps.Commerce == nil {
		return nil, errors.New("cancellation workflow: commerce gateway is required")
	}
	if deps.Eligibility == nil {
		return nil, errors.New("cancellation workflow: eligibility engine is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &cancellationWorkflow{
		commerce:    deps.Commerce,
		eligibility: deps.Eligibility,
		logger:      logger,
	}, nil
}

// CancelAndRefund re-checks eligibility, cancels the order with restocking,
// then refunds every line item in full. The refund is only attempted after a
// successful cancel; a refund failure therefore leaves the order cancelled
// upstream, and the outcome message says so explicitly.
func (w *cancellationWorkflow) CancelAndRefund(ctx context.Context, order *domain.Order) domain.CancellationOutcome {
	if order == nil {
		return domain.CancellationOutcome{
			Code:    domain.OutcomeOrderNotFound,
			Message: "No order found with these details.",
		}
	}

	if check := w.eligibility.CheckCancelEligibility(order); !check.Eligible {
		return domain.CancellationOutcome{
			Code:    domain.OutcomeCode(check.Reason),
			Message: fmt.Sprintf("Order cannot be cancelled: %s", check.Reason),
		}
	}

	cancellation, err := w.commerce.CancelOrder(ctx, order.ID)
	if err != nil {
		w.logger(ctx, eventOrderCancelFailed, map[string]any{"order_id": order.ID, "error": err.Error()})
		return domain.CancellationOutcome{
			Code:    domain.OutcomeCancelFailed,
			Message: fmt.Sprintf("I couldn't cancel order %s. Please contact support.", order.Name),
			Error:   err.Error(),
		}
	}

	refundItems := make([]domain.RefundLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		refundItems = append(refundItems, domain.RefundLineItem{
			LineItemID: item.ID,
			Quantity:   item.Quantity,
		})
	}

	refund, err := w.commerce.RefundOrder(ctx, order.ID, refundItems)
	if err != nil {
		w.logger(ctx, eventOrderRefundFailed, map[string]any{"order_id": order.ID, "error": err.Error()})
		return domain.CancellationOutcome{
			Code:         domain.OutcomeRefundFailed,
			Message:      fmt.Sprintf("Order %s was cancelled, but the refund could not be issued automatically. Please contact support to complete the refund.", order.Name),
			Cancellation: cancellation,
			Error:        err.Error(),
		}
	}

	return domain.CancellationOutcome{
		Success:      true,
		Code:         domain.OutcomeCancelAndRefundSuccess,
		Message:      fmt.Sprintf("Order %s has been cancelled and a full refund has been issued.", order.Name),
		Cancellation: cancellation,
		Refund:       refund,
	}
}
