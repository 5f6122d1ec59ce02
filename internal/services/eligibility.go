package services

import (
	"errors"
	"time"

	"github.com/ecommerce-copilot/api/internal/domain"
)

var errInvalidReturnWindow = errors.New("services: return window must be positive")

// EligibilityEngineDeps wires the clock and policy knobs for eligibility
// decisions.
type EligibilityEngineDeps struct {
	Clock            func() time.Time
	ReturnWindowDays int
}

type eligibilityEngine struct {
	clock            func() time.Time
	returnWindowDays int
}

// NewEligibilityEngine builds the rule engine behind return and cancel checks.
func NewEligibilityEngine(deps EligibilityEngineDeps) (EligibilityEngine, error) {
	if deps.ReturnWindowDays <= 0 {
		return nil, errInvalidReturnWindow
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &eligibilityEngine{
		clock:            clock,
		returnWindowDays: deps.ReturnWindowDays,
	}, nil
}

// CheckReturnEligibility allows a return only for delivered orders whose age
// since creation is within the return window. Age is compared as real elapsed
// time, not whole days. An order exactly at the window boundary is still
// eligible.
func (e *eligibilityEngine) CheckReturnEligibility(order *domain.Order) domain.EligibilityResult {
	if order == nil {
		return domain.EligibilityResult{Reason: domain.ReasonOrderNotFound}
	}
	if domain.ShippingStatusOf(order) != domain.ShippingStatusDelivered {
		return domain.EligibilityResult{Reason: domain.ReasonOrderNotDelivered}
	}
	window := time.Duration(e.returnWindowDays) * 24 * time.Hour
	if e.clock().Sub(order.CreatedAt) > window {
		return domain.EligibilityResult{Reason: domain.ReasonReturnWindowExpired}
	}
	return domain.EligibilityResult{Eligible: true, Reason: domain.ReasonOK}
}

// CheckCancelEligibility blocks cancellation for orders that are already
// cancelled, have any fulfillment progress, or whose payment was voided, in
// that order of precedence.
func (e *eligibilityEngine) CheckCancelEligibility(order *domain.Order) domain.EligibilityResult {
	if order == nil {
		return domain.EligibilityResult{Reason: domain.ReasonOrderNotFound}
	}
	if order.CancelledAt != nil {
		return domain.EligibilityResult{Reason: domain.ReasonAlreadyCancelled}
	}
	if order.FulfillmentStatus != nil {
		return domain.EligibilityResult{Reason: domain.ReasonAlreadyFulfilled}
	}
	if order.FinancialStatus == domain.FinancialStatusVoided {
		return domain.EligibilityResult{Reason: domain.ReasonPaymentVoided}
	}
	return domain.EligibilityResult{Eligible: true, Reason: domain.ReasonOK}
}
