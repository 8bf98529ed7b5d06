package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// OrderService handles order workflow operations
type OrderService struct {
	orderRepo order.Repository
	prices    order.PriceResolver
	payments  order.PaymentSummarizer
	rates     order.ShippingRateProvider
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo order.Repository, prices order.PriceResolver, payments order.PaymentSummarizer, rates order.ShippingRateProvider) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		prices:    prices,
		payments:  payments,
		rates:     rates,
	}
}

// Create opens a new order in the Cart state
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	number, err := s.orderRepo.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(number, valueobject.Currency(req.Currency))
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByNumber retrieves an order by its human-facing number
func (s *OrderService) GetByNumber(ctx context.Context, number string) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := order.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
		Number: filter.Number,
	}
	if filter.State != "" {
		state := order.State(filter.State)
		if !state.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATE", "Unknown order state filter")
		}
		domainFilter.State = &state
	}

	page, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, 0, len(page.Items))
	for idx := range page.Items {
		responses = append(responses, ToOrderResponse(&page.Items[idx]))
	}
	return responses, page.Total, nil
}

// AddItem adds a variant to the cart, capturing the current catalog price
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req AddItemRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	price, info, err := s.prices.Resolve(ctx, req.VariantID, o.CurrencyCode)
	if err != nil {
		return nil, err
	}

	if _, err := o.AddItem(info.VariantID, info.Name, info.SKU, info.Digital, req.Quantity, price); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// RemoveItem removes a line item from the cart
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// UpdateItemQuantity changes the quantity of a cart line
func (s *OrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, req UpdateItemQuantityRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.UpdateItemQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// SetAddresses attaches the ship and bill addresses
func (s *OrderService) SetAddresses(ctx context.Context, orderID uuid.UUID, req SetAddressesRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.SetAddresses(req.ShipAddressID, req.BillAddressID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// SetShippingMethod selects a shipping method from the rates available to
// the order and captures its cost
func (s *OrderService) SetShippingMethod(ctx context.Context, orderID uuid.UUID, req SetShippingMethodRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	available, err := s.rates.RatesFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	var selected *order.ShippingRate
	for idx := range available {
		if available[idx].MethodID == req.ShippingMethodID {
			selected = &available[idx]
			break
		}
	}
	if selected == nil {
		return nil, shared.NewValidationError("UNKNOWN_SHIPPING_METHOD", "Shipping method is not available for this order")
	}

	if err := o.SetShippingMethod(selected.MethodID, selected.CostCents); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// ApplyAdjustment applies a promotional adjustment to the order total
func (s *OrderService) ApplyAdjustment(ctx context.Context, orderID uuid.UUID, req ApplyAdjustmentRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.ApplyAdjustment(req.AmountCents); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// Next advances the order one step through the checkout sequence. Leaving
// Payment or Confirm consults the captured payment total.
func (s *OrderService) Next(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var input order.AdvanceInput
	if o.State == order.StatePayment || o.State == order.StateConfirm {
		captured, err := s.payments.CapturedTotal(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		input.CapturedCents = captured
	}

	if err := o.Next(input); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// SkipToPayment jumps a fully digital cart straight to Payment
func (s *OrderService) SkipToPayment(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.SkipToPayment(); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels the order. Canceling an already canceled order is a no-op.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	outcome, err := o.Cancel(req.Reason)
	if err != nil {
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
			return nil, err
		}
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// StateSummary counts orders in each workflow state
func (s *OrderService) StateSummary(ctx context.Context) (*StateSummaryResponse, error) {
	summary := &StateSummaryResponse{}
	targets := []struct {
		state order.State
		count *int64
	}{
		{order.StateCart, &summary.Cart},
		{order.StateAddress, &summary.Address},
		{order.StateDelivery, &summary.Delivery},
		{order.StatePayment, &summary.Payment},
		{order.StateConfirm, &summary.Confirm},
		{order.StateComplete, &summary.Complete},
		{order.StateCanceled, &summary.Canceled},
	}
	for _, target := range targets {
		n, err := s.orderRepo.CountByState(ctx, target.state)
		if err != nil {
			return nil, err
		}
		*target.count = n
	}
	return summary, nil
}

// ListShippingRates lists the shipping methods available to an order
func (s *OrderService) ListShippingRates(ctx context.Context, orderID uuid.UUID) ([]ShippingRateResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	available, err := s.rates.RatesFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]ShippingRateResponse, 0, len(available))
	for _, rate := range available {
		responses = append(responses, ShippingRateResponse{
			MethodID:  rate.MethodID,
			Name:      rate.Name,
			CostCents: rate.CostCents,
		})
	}
	return responses, nil
}
