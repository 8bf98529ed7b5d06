package returns

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// ReturnService handles the customer return workflow. Every unit accepted
// onto a return must have physically shipped and not already sit on
// another open return.
type ReturnService struct {
	returnRepo returns.Repository
	unitRepo   inventory.UnitRepository
	resolver   inventory.StockLocationResolver
}

// NewReturnService creates a new ReturnService
func NewReturnService(returnRepo returns.Repository, unitRepo inventory.UnitRepository, resolver inventory.StockLocationResolver) *ReturnService {
	return &ReturnService{
		returnRepo: returnRepo,
		unitRepo:   unitRepo,
		resolver:   resolver,
	}
}

// Create opens a customer return with at least one line
func (s *ReturnService) Create(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("EMPTY_RETURN", "A return requires at least one item")
	}

	for _, item := range req.Items {
		if err := s.validateReturnableUnit(ctx, req.OrderID, item.InventoryUnitID); err != nil {
			return nil, err
		}
	}

	locationID, err := s.stockLocation(ctx, req.OrderID, req.StockLocationID)
	if err != nil {
		return nil, err
	}

	number, err := s.returnRepo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	ret, err := returns.NewCustomerReturn(number, req.OrderID, locationID, req.Memo)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		unit, err := s.unitRepo.FindByID(ctx, item.InventoryUnitID)
		if err != nil {
			return nil, err
		}
		if _, err := ret.AddItem(unit.ID, unit.VariantID, item.ExchangeVariantID); err != nil {
			return nil, err
		}
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// GetByID retrieves a return by ID
func (s *ReturnService) GetByID(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// GetByNumber retrieves a return by its human-facing number
func (s *ReturnService) GetByNumber(ctx context.Context, number string) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// ListByOrder retrieves all returns of an order
func (s *ReturnService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnResponse, error) {
	rets, err := s.returnRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReturnResponse, 0, len(rets))
	for idx := range rets {
		responses = append(responses, ToReturnResponse(&rets[idx]))
	}
	return responses, nil
}

// List retrieves returns with filtering and pagination
func (s *ReturnService) List(ctx context.Context, filter ReturnListFilter) ([]ReturnResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := returns.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		Number: filter.Number,
	}
	if filter.OrderID != "" {
		orderID, err := uuid.Parse(filter.OrderID)
		if err != nil {
			return nil, 0, shared.NewValidationError("INVALID_ORDER_ID", "Order ID must be a UUID")
		}
		domainFilter.OrderID = &orderID
	}

	page, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReturnResponse, 0, len(page.Items))
	for idx := range page.Items {
		responses = append(responses, ToReturnResponse(&page.Items[idx]))
	}
	return responses, page.Total, nil
}

// AddItem adds a line to an open return
func (s *ReturnService) AddItem(ctx context.Context, returnID uuid.UUID, req AddReturnItemRequest) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := s.validateReturnableUnit(ctx, ret.OrderID, req.InventoryUnitID); err != nil {
		return nil, err
	}

	unit, err := s.unitRepo.FindByID(ctx, req.InventoryUnitID)
	if err != nil {
		return nil, err
	}
	if _, err := ret.AddItem(unit.ID, unit.VariantID, req.ExchangeVariantID); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// ReceiveItem records physical receipt of one return line
func (s *ReturnService) ReceiveItem(ctx context.Context, returnID, itemID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if _, err := ret.ReceiveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// Cancel voids a return whose lines have not been received
func (s *ReturnService) Cancel(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	outcome, err := ret.Cancel()
	if err != nil {
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
			return nil, err
		}
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// validateReturnableUnit enforces the entry conditions for a return line:
// the unit belongs to the order, has shipped, and is not already claimed
// by another open return.
func (s *ReturnService) validateReturnableUnit(ctx context.Context, orderID, unitID uuid.UUID) error {
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if err != nil {
		return err
	}
	if unit.OrderID != orderID {
		return shared.NewValidationError("UNIT_NOT_IN_ORDER", "Inventory unit does not belong to this order")
	}
	if unit.State == inventory.UnitStateReturned {
		return shared.NewConflictError("ALREADY_RETURNED", "Inventory unit was already returned")
	}
	if unit.State != inventory.UnitStateShipped {
		return shared.NewConflictError("UNIT_NOT_SHIPPED", "Only shipped units can be returned")
	}

	open, err := s.returnRepo.HasOpenItemForUnit(ctx, unitID)
	if err != nil {
		return err
	}
	if open {
		return shared.NewConflictError("UNIT_ALREADY_IN_RETURN", "Inventory unit is already on an open return")
	}

	return nil
}

func (s *ReturnService) stockLocation(ctx context.Context, orderID uuid.UUID, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		return *requested, nil
	}
	return s.resolver.DefaultOrSelectedLocation(ctx, orderID)
}
