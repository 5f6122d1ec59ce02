package services

import (
	"context"
	"errors"

	"github.com/ecommerce-copilot/api/internal/domain"
)

const eventStockLookupFailed = "stock.lookup_failed"

// StockServiceDeps bundles the collaborators required to construct a stock
// checker.
type StockServiceDeps struct {
	Commerce CommerceGateway
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type stockService struct {
	commerce CommerceGateway
	logger   func(context.Context, string, map[string]any)
}

// NewStockService wires dependencies into a concrete StockChecker implementation.
func NewStockService(deps StockServiceDeps) (StockChecker, error) {
	if deps.Commerce == nil {
		return nil, errors.New("stock service: commerce gateway is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &stockService{commerce: deps.Commerce, logger: logger}, nil
}

// CheckStock resolves the variant's tracked inventory level. Availability is
// checked per variant; a product ID alone is not enough to pick a variant.
func (s *stockService) CheckStock(ctx context.Context, query StockQuery) domain.StockResult {
	if query.VariantID == 0 {
		return domain.StockResult{
			Code:      domain.StockCodeMissingVariantID,
			ProductID: query.ProductID,
		}
	}

	variant, err := s.commerce.Variant(ctx, query.VariantID)
	if err != nil {
		s.logger(ctx, eventStockLookupFailed, map[string]any{"variant_id": query.VariantID, "error": err.Error()})
		return domain.StockResult{
			Code:      domain.StockCodeCheckFailed,
			VariantID: query.VariantID,
			ProductID: query.ProductID,
			Error:     err.Error(),
		}
	}

	return domain.StockResult{
		Success:   true,
		Code:      domain.StockCodeOK,
		InStock:   variant.InventoryQuantity > 0,
		Quantity:  variant.InventoryQuantity,
		VariantID: variant.ID,
		ProductID: variant.ProductID,
	}
}
