package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidOrderIdentifier signals a user-supplied order number that cannot be
// normalized into a numeric order number.
var ErrInvalidOrderIdentifier = errors.New("order identifier is not numeric")

// OrderIdentifier is the normalized form of a raw user-supplied order number
// such as "#1033" or "1033".
type OrderIdentifier struct {
	Raw           string
	Numeric       int64
	CanonicalName string
}

// ParseOrderIdentifier trims, URL-decodes and strips a leading "#" from the raw
// value. Non-numeric remainders are rejected rather than carried forward as an
// undefined numeric value.
func ParseOrderIdentifier(raw string) (OrderIdentifier, error) {
	value := strings.TrimSpace(raw)
	if decoded, err := url.QueryUnescape(value); err == nil {
		value = strings.TrimSpace(decoded)
	}
	value = strings.TrimPrefix(value, "#")
	if value == "" {
		return OrderIdentifier{}, fmt.Errorf("%w: empty identifier", ErrInvalidOrderIdentifier)
	}
	numeric, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return OrderIdentifier{}, fmt.Errorf("%w: %q", ErrInvalidOrderIdentifier, raw)
	}
	return OrderIdentifier{
		Raw:           raw,
		Numeric:       numeric,
		CanonicalName: "#" + strconv.FormatInt(numeric, 10),
	}, nil
}

// FinancialStatus enumerates the platform's payment states for an order.
type FinancialStatus string

const (
	FinancialStatusPaid     FinancialStatus = "paid"
	FinancialStatusVoided   FinancialStatus = "voided"
	FinancialStatusRefunded FinancialStatus = "refunded"
)

// ShippingStatus is the canonical shipping state derived from fulfillments.
type ShippingStatus string

const (
	ShippingStatusNotShipped     ShippingStatus = "not_shipped"
	ShippingStatusInTransit      ShippingStatus = "in_transit"
	ShippingStatusOutForDelivery ShippingStatus = "out_for_delivery"
	ShippingStatusDelivered      ShippingStatus = "delivered"
)

// LineItem is a purchased item on an order.
type LineItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	SKU      string `json:"sku"`
}

// Fulfillment is a shipment record attached to an order.
type Fulfillment struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	ShipmentStatus string `json:"shipment_status"`
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
}

// Order is the commerce platform's purchase record, read-only to this system.
type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       int64           `json:"order_number"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	FinancialStatus   FinancialStatus `json:"financial_status"`
	FulfillmentStatus *string         `json:"fulfillment_status"`
	TotalPrice        string          `json:"total_price"`
	Currency          string          `json:"currency"`
	CreatedAt         time.Time       `json:"created_at"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	LineItems         []LineItem      `json:"line_items"`
	Fulfillments      []Fulfillment   `json:"fulfillments"`
}

// ShippingStatusOf derives the canonical shipping status from an order's
// fulfillment sub-records. Only the first fulfillment is inspected; unknown
// carrier states default to in_transit.
func ShippingStatusOf(order *Order) ShippingStatus {
	if order == nil || len(order.Fulfillments) == 0 {
		return ShippingStatusNotShipped
	}
	first := order.Fulfillments[0]
	status := strings.TrimSpace(first.ShipmentStatus)
	if status == "" {
		status = strings.TrimSpace(first.Status)
	}
	switch status {
	case "success", "delivered":
		return ShippingStatusDelivered
	case "out_for_delivery":
		return ShippingStatusOutForDelivery
	case "in_transit":
		return ShippingStatusInTransit
	default:
		return ShippingStatusInTransit
	}
}

// OrderSummary is the request-scoped presentation projection of an Order.
type OrderSummary struct {
	OrderID           int64          `json:"orderId"`
	OrderNumber       string         `json:"orderNumber"`
	FinancialStatus   string         `json:"financialStatus"`
	FulfillmentStatus *string        `json:"fulfillmentStatus"`
	ShippingStatus    ShippingStatus `json:"shippingStatus"`
	TotalPrice        string         `json:"totalPrice"`
	Currency          string         `json:"currency"`
	CreatedAt         time.Time      `json:"createdAt"`
	CustomerEmail     string         `json:"customerEmail"`
	LineItems         []LineItem     `json:"lineItems"`
	TrackingNumber    string         `json:"trackingNumber,omitempty"`
	TrackingURL       string         `json:"trackingUrl,omitempty"`
}

// Customer is the subset of the platform customer record used to look up
// orders by email.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Variant is a purchasable product configuration, the unit of inventory
// tracking.
type Variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// RefundLineItem names one line item and quantity inside a refund request.
type RefundLineItem struct {
	LineItemID int64 `json:"line_item_id"`
	Quantity   int   `json:"quantity"`
}

// EligibilityReason enumerates the reason codes behind an eligibility decision.
type EligibilityReason string

const (
	ReasonOK                  EligibilityReason = "OK"
	ReasonOrderNotFound       EligibilityReason = "ORDER_NOT_FOUND"
	ReasonOrderNotDelivered   EligibilityReason = "ORDER_NOT_DELIVERED_YET"
	ReasonReturnWindowExpired EligibilityReason = "RETURN_WINDOW_EXPIRED"
	ReasonAlreadyCancelled    EligibilityReason = "ORDER_ALREADY_CANCELLED"
	ReasonAlreadyFulfilled    EligibilityReason = "ORDER_ALREADY_FULFILLED"
	ReasonPaymentVoided       EligibilityReason = "PAYMENT_VOIDED"
)

// EligibilityResult is a pure value gating a downstream action.
type EligibilityResult struct {
	Eligible bool              `json:"eligible"`
	Reason   EligibilityReason `json:"reason"`
}

// OutcomeCode enumerates terminal states of the cancellation workflow.
type OutcomeCode string

const (
	OutcomeCancelAndRefundSuccess OutcomeCode = "CANCEL_AND_REFUND_SUCCESS"
	OutcomeCancelFailed           OutcomeCode = "CANCEL_FAILED"
	OutcomeRefundFailed           OutcomeCode = "REFUND_FAILED"
	OutcomeOrderNotFound          OutcomeCode = "ORDER_NOT_FOUND"
)

// CancellationOutcome is the terminal state of the cancel-then-refund workflow.
// A REFUND_FAILED outcome means the order is cancelled upstream with no refund
// issued; operators must reconcile that state manually.
type CancellationOutcome struct {
	Success      bool            `json:"success"`
	Code         OutcomeCode     `json:"code"`
	Message      string          `json:"message"`
	Cancellation json.RawMessage `json:"cancellation,omitempty"`
	Refund       json.RawMessage `json:"refund,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// StockCode enumerates stock check result codes.
type StockCode string

const (
	StockCodeOK               StockCode = "OK"
	StockCodeMissingVariantID StockCode = "MISSING_VARIANT_ID"
	StockCodeCheckFailed      StockCode = "STOCK_CHECK_FAILED"
)

// StockResult reports inventory availability for a single variant.
type StockResult struct {
	Success   bool      `json:"success"`
	Code      StockCode `json:"code"`
	InStock   bool      `json:"inStock"`
	Quantity  int       `json:"quantity"`
	VariantID int64     `json:"variantId,omitempty"`
	ProductID int64     `json:"productId,omitempty"`
	Error     string    `json:"error,omitempty"`
}
