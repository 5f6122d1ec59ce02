package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ecommerce-copilot/api/internal/domain"
	"github.com/ecommerce-copilot/api/internal/platform/httpx"
	"github.com/ecommerce-copilot/api/internal/platform/observability"
	"github.com/ecommerce-copilot/api/internal/services"
	"github.com/ecommerce-copilot/api/internal/shopify"
)

// OrderHandlers exposes thin order lookups for operator tooling.
type OrderHandlers struct {
	commerce services.CommerceGateway
}

// NewOrderHandlers constructs the order lookup handler set.
func NewOrderHandlers(commerce services.CommerceGateway) (*OrderHandlers, error) {
	if commerce == nil {
		return nil, errors.New("order handlers: commerce gateway is required")
	}
	return &OrderHandlers{commerce: commerce}, nil
}

// Routes registers the order lookup endpoints on the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Get("/by-email/{email}", h.ordersByEmail)
	r.Get("/{orderID}", h.orderByID)
}

func (h *OrderHandlers) ordersByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(email); err == nil {
		email = decoded
	}
	email = strings.TrimSpace(email)
	if email == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_email", "email path parameter is required", http.StatusBadRequest))
		return
	}

	customer, err := h.commerce.FindCustomerByEmail(r.Context(), email)
	if err != nil {
		h.writeLookupError(w, r, "orders_by_email", err)
		return
	}
	if customer == nil {
		writeJSONResponse(w, http.StatusOK, map[string]any{"orders": []domain.Order{}})
		return
	}

	orders, err := h.commerce.OrdersByCustomer(r.Context(), customer.ID)
	if err != nil {
		h.writeLookupError(w, r, "orders_by_email", err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrderHandlers) orderByID(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "orderID")
	orderID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_order_id", "order id must be numeric", http.StatusBadRequest))
		return
	}

	order, err := h.commerce.OrderByID(r.Context(), orderID)
	if err != nil {
		var apiErr *shopify.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			httpx.WriteError(r.Context(), w, httpx.NewError("order_not_found", "no order with that id", http.StatusNotFound))
			return
		}
		h.writeLookupError(w, r, "order_by_id", err)
		return
	}
	if order == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_not_found", "no order with that id", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"order": order})
}

func (h *OrderHandlers) writeLookupError(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.FromContext(r.Context()).Error("order lookup failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	httpx.WriteError(r.Context(), w, httpx.NewError("upstream_error", "order lookup failed", http.StatusBadGateway))
}
