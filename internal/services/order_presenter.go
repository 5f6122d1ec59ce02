package services

import "github.com/ecommerce-copilot/api/internal/domain"

// SummarizeOrder flattens a platform order into the chat-facing projection.
// It returns nil if and only if the order is nil.
func SummarizeOrder(order *domain.Order) *domain.OrderSummary {
	if order == nil {
		return nil
	}
	summary := &domain.OrderSummary{
		OrderID:           order.ID,
		OrderNumber:       order.Name,
		FinancialStatus:   string(order.FinancialStatus),
		FulfillmentStatus: order.FulfillmentStatus,
		ShippingStatus:    domain.ShippingStatusOf(order),
		TotalPrice:        order.TotalPrice,
		Currency:          order.Currency,
		CreatedAt:         order.CreatedAt,
		CustomerEmail:     order.Email,
		LineItems:         order.LineItems,
	}
	if len(order.Fulfillments) > 0 {
		summary.TrackingNumber = order.Fulfillments[0].TrackingNumber
		summary.TrackingURL = order.Fulfillments[0].TrackingURL
	}
	return summary
}
