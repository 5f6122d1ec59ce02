package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ecommerce-copilot/api/internal/domain"
	"github.com/ecommerce-copilot/api/internal/platform/httpx"
	"github.com/ecommerce-copilot/api/internal/platform/observability"
	"github.com/ecommerce-copilot/api/internal/services"
)

const maxSupportBodySize = 1 << 20

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body exceeds limit")
)

const (
	msgTrackGuidance  = "Please provide either the email used at checkout or the Order ID (e.g., #1003)."
	msgTrackNotFound  = "I couldn't find any order with those details. Please double-check your email or order number."
	msgReturnGuidance = "Please provide the email used at checkout or the Order ID so I can check return eligibility."
	msgReturnNotFound = "No matching order found. Please re-check the email or order ID."
	msgCancelGuidance = "Please provide the email used at checkout or the Order ID so I can check cancellation eligibility."
	msgCancelNotFound = "No order found with these details. Please re-check the email or order ID."
	msgStockGuidance  = "Please provide a variant ID or product ID. Name-only stock checks are not supported."
	msgStockNeedsID   = "To check stock, I need a variant ID or product ID (e.g., 395534453)."
	msgStockFailed    = "Unable to fetch stock details at the moment."
	msgStockOut       = "Currently out of stock."
)

// flexString accepts a JSON string or number, since chat widgets send order
// and variant identifiers both ways.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) value() string {
	return strings.TrimSpace(string(f))
}

func (f flexString) int64() int64 {
	v, err := strconv.ParseInt(f.value(), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

type supportRequest struct {
	Message     string     `json:"message"`
	Email       string     `json:"email"`
	OrderNumber flexString `json:"orderNumber"`
	OrderID     flexString `json:"order_id"`
	VisitorID   string     `json:"visitorId"`
	VariantID   flexString `json:"variantId"`
	ProductID   flexString `json:"productId"`
	ProductName string     `json:"product_name"`
}

// orderNo collapses the orderNumber/order_id aliases into one value.
func (r supportRequest) orderNo() string {
	if v := r.OrderNumber.value(); v != "" {
		return v
	}
	return r.OrderID.value()
}

type supportResponse struct {
	Success    bool   `json:"success"`
	BotMessage string `json:"botMessage"`
	Data       any    `json:"data,omitempty"`
}

type returnAcknowledgement struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	OrderNumber string `json:"orderNumber"`
}

// SupportHandlersDeps bundles the collaborators behind the support endpoints.
type SupportHandlersDeps struct {
	Resolver    services.OrderResolver
	Eligibility services.EligibilityEngine
	Workflow    services.CancellationWorkflow
	Stock       services.StockChecker
	Classifier  services.Classifier
	Events      services.EventRecorder
}

// SupportHandlers serves the chat-facing support operations.
type SupportHandlers struct {
	resolver    services.OrderResolver
	eligibility services.EligibilityEngine
	workflow    services.CancellationWorkflow
	stock       services.StockChecker
	classifier  services.Classifier
	events      services.EventRecorder
}

// NewSupportHandlers validates dependencies and constructs the handler set.
func NewSupportHandlers(deps SupportHandlersDeps) (*SupportHandlers, error) {
	if deps.Resolver == nil {
		return nil, errors.New("support handlers: order resolver is required")
	}
	if deps.Eligibility == nil {
		return nil, errors.New("support handlers: eligibility engine is required")
	}
	if deps.Workflow == nil {
		return nil, errors.New("support handlers: cancellation workflow is required")
	}
	if deps.Stock == nil {
		return nil, errors.New("support handlers: stock checker is required")
	}
	if deps.Classifier == nil {
		return nil, errors.New("support handlers: classifier is required")
	}
	if deps.Events == nil {
		return nil, errors.New("support handlers: event recorder is required")
	}
	return &SupportHandlers{
		resolver:    deps.Resolver,
		eligibility: deps.Eligibility,
		workflow:    deps.Workflow,
		stock:       deps.Stock,
		classifier:  deps.Classifier,
		events:      deps.Events,
	}, nil
}

// Routes registers the support endpoints on the provided router.
func (h *SupportHandlers) Routes(r chi.Router) {
	r.Post("/track-order", h.trackOrder)
	r.Post("/return-order", h.returnOrder)
	r.Post("/cancel-order", h.cancelOrder)
	r.Post("/check-stock", h.checkStock)
}

func (h *SupportHandlers) trackOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	orderNo := req.orderNo()
	if req.Email == "" && orderNo == "" {
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgTrackGuidance})
		return
	}

	order, err := h.resolver.Resolve(r.Context(), services.OrderQuery{OrderNumber: orderNo, Email: req.Email})
	if err != nil {
		h.writeInternalError(w, r, "track-order", err)
		return
	}
	summary := services.SummarizeOrder(order)

	classification := h.classifier.Classify(r.Context(), req.Message)
	h.events.Record(r.Context(), services.EventRecord{
		VisitorID:   req.VisitorID,
		Email:       req.Email,
		EventType:   domain.EventTrackOrder,
		OrderNumber: orderNo,
		Succeeded:   order != nil,
		Metadata: map[string]any{
			"orderNumber": orderNo,
			"found":       order != nil,
			"summary":     summary,
		},
		Classification: classification,
	})

	if summary == nil {
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgTrackNotFound})
		return
	}

	writeJSONResponse(w, http.StatusOK, supportResponse{
		Success:    true,
		BotMessage: fmt.Sprintf("Here are the details for order %s.", summary.OrderNumber),
		Data:       summary,
	})
}

func (h *SupportHandlers) returnOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	orderNo := req.orderNo()
	if req.Email == "" && orderNo == "" {
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgReturnGuidance})
		return
	}

	order, err := h.resolver.Resolve(r.Context(), services.OrderQuery{OrderNumber: orderNo, Email: req.Email})
	if err != nil {
		h.writeInternalError(w, r, "return-order", err)
		return
	}

	classification := h.classifier.Classify(r.Context(), req.Message)

	if order == nil {
		h.events.Record(r.Context(), services.EventRecord{
			VisitorID:   req.VisitorID,
			Email:       req.Email,
			EventType:   domain.EventReturnOrder,
			OrderNumber: orderNo,
			Metadata: map[string]any{
				"orderNumber": orderNo,
				"found":       false,
			},
			Classification: classification,
		})
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgReturnNotFound})
		return
	}

	eligibility := h.eligibility.CheckReturnEligibility(order)
	h.events.Record(r.Context(), services.EventRecord{
		VisitorID:   req.VisitorID,
		Email:       req.Email,
		EventType:   domain.EventReturnOrder,
		OrderNumber: orderNo,
		Succeeded:   eligibility.Eligible,
		Metadata: map[string]any{
			"orderNumber": orderNo,
			"found":       true,
			"eligibility": eligibility,
		},
		Classification: classification,
	})

	if !eligibility.Eligible {
		writeJSONResponse(w, http.StatusOK, supportResponse{
			BotMessage: fmt.Sprintf("Return not allowed: %s", eligibility.Reason),
			Data:       eligibility,
		})
		return
	}

	ack := returnAcknowledgement{
		Success:     true,
		Message:     fmt.Sprintf("Return request submitted for order %s.", order.Name),
		OrderNumber: order.Name,
	}
	writeJSONResponse(w, http.StatusOK, supportResponse{
		Success:    true,
		BotMessage: ack.Message,
		Data:       ack,
	})
}

func (h *SupportHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	orderNo := req.orderNo()
	if req.Email == "" && orderNo == "" {
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgCancelGuidance})
		return
	}

	order, err := h.resolver.Resolve(r.Context(), services.OrderQuery{OrderNumber: orderNo, Email: req.Email})
	if err != nil {
		h.writeInternalError(w, r, "cancel-order", err)
		return
	}

	classification := h.classifier.Classify(r.Context(), req.Message)

	if order == nil {
		h.events.Record(r.Context(), services.EventRecord{
			VisitorID:   req.VisitorID,
			Email:       req.Email,
			EventType:   domain.EventCancelOrder,
			OrderNumber: orderNo,
			Metadata: map[string]any{
				"orderNumber": orderNo,
				"found":       false,
			},
			Classification: classification,
		})
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgCancelNotFound})
		return
	}

	eligibility := h.eligibility.CheckCancelEligibility(order)

	if !eligibility.Eligible {
		h.events.Record(r.Context(), services.EventRecord{
			VisitorID:   req.VisitorID,
			Email:       req.Email,
			EventType:   domain.EventCancelOrder,
			OrderNumber: orderNo,
			Metadata: map[string]any{
				"orderNumber": orderNo,
				"found":       true,
				"eligibility": eligibility,
			},
			Classification: classification,
		})
		writeJSONResponse(w, http.StatusOK, supportResponse{
			BotMessage: fmt.Sprintf("Cancellation not allowed: %s", eligibility.Reason),
			Data:       eligibility,
		})
		return
	}

	outcome := h.workflow.CancelAndRefund(r.Context(), order)
	h.events.Record(r.Context(), services.EventRecord{
		VisitorID:   req.VisitorID,
		Email:       req.Email,
		EventType:   domain.EventCancelOrder,
		OrderNumber: orderNo,
		Succeeded:   outcome.Success,
		Metadata: map[string]any{
			"orderNumber": orderNo,
			"found":       true,
			"eligibility": eligibility,
			"outcome":     outcome.Code,
		},
		Classification: classification,
	})

	writeJSONResponse(w, http.StatusOK, supportResponse{
		Success:    outcome.Success,
		BotMessage: outcome.Message,
		Data:       outcome,
	})
}

func (h *SupportHandlers) checkStock(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	variantID := req.VariantID.int64()
	productID := req.ProductID.int64()

	if req.VariantID.value() == "" {
		if req.ProductID.value() == "" && req.ProductName == "" {
			writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgStockGuidance})
			return
		}
		writeJSONResponse(w, http.StatusOK, supportResponse{BotMessage: msgStockNeedsID})
		return
	}

	stock := h.stock.CheckStock(r.Context(), services.StockQuery{VariantID: variantID, ProductID: productID})

	classification := h.classifier.Classify(r.Context(), req.Message)
	h.events.Record(r.Context(), services.EventRecord{
		VisitorID: req.VisitorID,
		Email:     req.Email,
		EventType: domain.EventStockCheck,
		Succeeded: stock.Success,
		Metadata: map[string]any{
			"variantId":    req.VariantID.value(),
			"productId":    req.ProductID.value(),
			"product_name": req.ProductName,
			"stock":        stock,
		},
		Classification: classification,
	})

	if !stock.Success {
		writeJSONResponse(w, http.StatusOK, supportResponse{
			BotMessage: msgStockFailed,
			Data:       stock,
		})
		return
	}

	message := msgStockOut
	if stock.InStock {
		message = fmt.Sprintf("Good news! This item is in stock (%d units).", stock.Quantity)
	}
	writeJSONResponse(w, http.StatusOK, supportResponse{
		Success:    true,
		BotMessage: message,
		Data:       stock,
	})
}

func (h *SupportHandlers) parseRequest(w http.ResponseWriter, r *http.Request) (supportRequest, bool) {
	var req supportRequest

	body, err := readLimitedBody(r, maxSupportBodySize)
	if err != nil {
		if errors.Is(err, errEmptyBody) {
			return req, true
		}
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body could not be read", http.StatusBadRequest))
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be valid JSON", http.StatusBadRequest))
		return req, false
	}

	req.Email = strings.TrimSpace(req.Email)
	req.VisitorID = strings.TrimSpace(req.VisitorID)
	req.ProductName = strings.TrimSpace(req.ProductName)
	return req, true
}

func (h *SupportHandlers) writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.FromContext(r.Context()).Error("support operation failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	httpx.WriteError(r.Context(), w, httpx.NewError("internal_error", "something went wrong handling the request", http.StatusInternalServerError))
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxSupportBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}
