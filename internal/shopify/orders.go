package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ecommerce-copilot/api/internal/domain"
)

// Orders fetched per page when scanning a customer's history or the store's
// recent orders. Matches the admin API's bounded page semantics.
const orderPageLimit = 50

// FindCustomerByEmail resolves a customer via exact email search. Returns nil
// when no customer matches.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := url.Values{}
	query.Set("query", fmt.Sprintf("email:%q", email))
	query.Set("limit", "1")

	var payload struct {
		Customers []domain.Customer `json:"customers"`
	}
	if err := c.get(ctx, "customers.search", "/customers/search.json", query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Customers) == 0 {
		return nil, nil
	}
	customer := payload.Customers[0]
	return &customer, nil
}

// OrdersByCustomer fetches the customer's most recent orders, any financial or
// fulfillment status, newest first.
func (c *Client) OrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	query := url.Values{}
	query.Set("customer_id", strconv.FormatInt(customerID, 10))
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(orderPageLimit))

	var payload struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "orders.byCustomer", "/orders.json", query, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// OrdersByName fetches orders whose display name matches exactly (e.g. "#1033").
func (c *Client) OrdersByName(ctx context.Context, name string) ([]domain.Order, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("status", "any")
	query.Set("limit", "1")

	var payload struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "orders.byName", "/orders.json", query, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// RecentOrders fetches a bounded page of the store's latest orders, any status.
func (c *Client) RecentOrders(ctx context.Context) ([]domain.Order, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(orderPageLimit))

	var payload struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "orders.recent", "/orders.json", query, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// OrderByID fetches a single order by its platform identifier.
func (c *Client) OrderByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var payload struct {
		Order *domain.Order `json:"order"`
	}
	path := fmt.Sprintf("/orders/%d.json", orderID)
	if err := c.get(ctx, "orders.byId", path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Order, nil
}

// Variant fetches the variant record carrying the inventory quantity.
func (c *Client) Variant(ctx context.Context, variantID int64) (*domain.Variant, error) {
	var payload struct {
		Variant *domain.Variant `json:"variant"`
	}
	path := fmt.Sprintf("/variants/%d.json", variantID)
	if err := c.get(ctx, "variants.get", path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Variant, nil
}

// CancelOrder issues the cancellation mutation with the restock flag set so
// cancelled inventory returns to stock. The raw payload is returned for the
// workflow outcome.
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (json.RawMessage, error) {
	body := map[string]any{"restock": true}
	var payload json.RawMessage
	path := fmt.Sprintf("/orders/%d/cancel.json", orderID)
	if err := c.post(ctx, "orders.cancel", path, body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RefundOrder issues a refund covering the supplied line items.
func (c *Client) RefundOrder(ctx context.Context, orderID int64, lineItems []domain.RefundLineItem) (json.RawMessage, error) {
	body := map[string]any{
		"refund": map[string]any{
			"notify":            true,
			"refund_line_items": lineItems,
		},
	}
	var payload json.RawMessage
	path := fmt.Sprintf("/orders/%d/refunds.json", orderID)
	if err := c.post(ctx, "orders.refund", path, body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
