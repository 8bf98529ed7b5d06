package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// fakeShipmentRepository is an in-memory inventory.ShipmentRepository double
type fakeShipmentRepository struct {
	shipments map[uuid.UUID]*inventory.Shipment
	seq       int
}

func newFakeShipmentRepository() *fakeShipmentRepository {
	return &fakeShipmentRepository{shipments: make(map[uuid.UUID]*inventory.Shipment)}
}

func (r *fakeShipmentRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.Shipment, error) {
	s, ok := r.shipments[id]
	if !ok {
		return nil, shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
	}
	clone := *s
	return &clone, nil
}

func (r *fakeShipmentRepository) FindByNumber(_ context.Context, number string) (*inventory.Shipment, error) {
	for _, s := range r.shipments {
		if s.Number == number {
			clone := *s
			return &clone, nil
		}
	}
	return nil, shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
}

func (r *fakeShipmentRepository) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]inventory.Shipment, error) {
	result := make([]inventory.Shipment, 0)
	for _, s := range r.shipments {
		if s.OrderID == orderID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *fakeShipmentRepository) FindAll(_ context.Context, filter inventory.ShipmentFilter) (*shared.Paginated[inventory.Shipment], error) {
	items := make([]inventory.Shipment, 0)
	for _, s := range r.shipments {
		if filter.OrderID != nil && s.OrderID != *filter.OrderID {
			continue
		}
		if filter.State != nil && s.State != *filter.State {
			continue
		}
		items = append(items, *s)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeShipmentRepository) Save(_ context.Context, s *inventory.Shipment) error {
	clone := *s
	r.shipments[s.ID] = &clone
	s.ClearDomainEvents()
	return nil
}

func (r *fakeShipmentRepository) SaveWithLock(_ context.Context, s *inventory.Shipment) error {
	stored, ok := r.shipments[s.ID]
	if !ok {
		return shared.NewNotFoundError("SHIPMENT_NOT_FOUND", "Shipment not found")
	}
	if stored.Version != s.Version {
		return shared.ErrConcurrencyConflict
	}
	s.Version++
	clone := *s
	r.shipments[s.ID] = &clone
	s.ClearDomainEvents()
	return nil
}

func (r *fakeShipmentRepository) NextNumber(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("H-2026-%05d", r.seq), nil
}

// fakeUnitRepository is an in-memory inventory.UnitRepository double
type fakeUnitRepository struct {
	units map[uuid.UUID]*inventory.InventoryUnit
}

func newFakeUnitRepository() *fakeUnitRepository {
	return &fakeUnitRepository{units: make(map[uuid.UUID]*inventory.InventoryUnit)}
}

func (r *fakeUnitRepository) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryUnit, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, shared.NewNotFoundError("UNIT_NOT_FOUND", "Inventory unit not found")
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUnitRepository) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]inventory.InventoryUnit, error) {
	result := make([]inventory.InventoryUnit, 0)
	for _, u := range r.units {
		if u.OrderID == orderID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *fakeUnitRepository) FindByLineItemID(_ context.Context, lineItemID uuid.UUID) ([]inventory.InventoryUnit, error) {
	result := make([]inventory.InventoryUnit, 0)
	for _, u := range r.units {
		if u.LineItemID == lineItemID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *fakeUnitRepository) FindByShipmentID(_ context.Context, shipmentID uuid.UUID) ([]inventory.InventoryUnit, error) {
	result := make([]inventory.InventoryUnit, 0)
	for _, u := range r.units {
		if u.ShipmentID != nil && *u.ShipmentID == shipmentID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (r *fakeUnitRepository) Save(_ context.Context, u *inventory.InventoryUnit) error {
	clone := *u
	r.units[u.ID] = &clone
	u.ClearDomainEvents()
	return nil
}

func (r *fakeUnitRepository) SaveWithLock(_ context.Context, u *inventory.InventoryUnit) error {
	stored, ok := r.units[u.ID]
	if !ok {
		return shared.NewNotFoundError("UNIT_NOT_FOUND", "Inventory unit not found")
	}
	if stored.Version != u.Version {
		return shared.ErrConcurrencyConflict
	}
	u.Version++
	clone := *u
	r.units[u.ID] = &clone
	u.ClearDomainEvents()
	return nil
}

func (r *fakeUnitRepository) CountByState(_ context.Context, state inventory.UnitState) (int64, error) {
	var count int64
	for _, u := range r.units {
		if u.State == state {
			count++
		}
	}
	return count, nil
}

// fakeStockLedger is an in-memory inventory.StockLedger double keyed by
// location and variant
type fakeStockLedger struct {
	onHand        map[string]int
	backorderable map[string]bool
}

func newFakeStockLedger() *fakeStockLedger {
	return &fakeStockLedger{
		onHand:        make(map[string]int),
		backorderable: make(map[string]bool),
	}
}

func stockKey(locationID, variantID uuid.UUID) string {
	return locationID.String() + "/" + variantID.String()
}

func (l *fakeStockLedger) seed(locationID, variantID uuid.UUID, onHand int, backorderable bool) {
	key := stockKey(locationID, variantID)
	l.onHand[key] = onHand
	l.backorderable[key] = backorderable
}

func (l *fakeStockLedger) Reserve(_ context.Context, locationID, variantID uuid.UUID, count int) (inventory.Reservation, error) {
	key := stockKey(locationID, variantID)
	available, ok := l.onHand[key]
	if !ok {
		return inventory.Reservation{}, nil
	}
	reserved := count
	if available < reserved {
		reserved = available
	}
	l.onHand[key] = available - reserved
	return inventory.Reservation{Reserved: reserved, Backorderable: l.backorderable[key]}, nil
}

func (l *fakeStockLedger) Restock(_ context.Context, locationID, variantID uuid.UUID, count int) error {
	l.onHand[stockKey(locationID, variantID)] += count
	return nil
}

// fakeLocationResolver always resolves the same location
type fakeLocationResolver struct {
	locationID uuid.UUID
}

func (r *fakeLocationResolver) DefaultOrSelectedLocation(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
	return r.locationID, nil
}

// fakeReturnRepository is an in-memory returns.Repository double
type fakeReturnRepository struct {
	returns map[uuid.UUID]*returns.CustomerReturn
}

func newFakeReturnRepository() *fakeReturnRepository {
	return &fakeReturnRepository{returns: make(map[uuid.UUID]*returns.CustomerReturn)}
}

func (r *fakeReturnRepository) FindByID(_ context.Context, id uuid.UUID) (*returns.CustomerReturn, error) {
	ret, ok := r.returns[id]
	if !ok {
		return nil, shared.NewNotFoundError("RETURN_NOT_FOUND", "Return not found")
	}
	clone := *ret
	return &clone, nil
}

func (r *fakeReturnRepository) FindByNumber(_ context.Context, number string) (*returns.CustomerReturn, error) {
	for _, ret := range r.returns {
		if ret.Number == number {
			clone := *ret
			return &clone, nil
		}
	}
	return nil, shared.NewNotFoundError("RETURN_NOT_FOUND", "Return not found")
}

func (r *fakeReturnRepository) FindByOrderID(_ context.Context, orderID uuid.UUID) ([]returns.CustomerReturn, error) {
	result := make([]returns.CustomerReturn, 0)
	for _, ret := range r.returns {
		if ret.OrderID == orderID {
			result = append(result, *ret)
		}
	}
	return result, nil
}

func (r *fakeReturnRepository) FindAll(_ context.Context, filter returns.Filter) (*shared.Paginated[returns.CustomerReturn], error) {
	items := make([]returns.CustomerReturn, 0, len(r.returns))
	for _, ret := range r.returns {
		items = append(items, *ret)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeReturnRepository) Save(_ context.Context, ret *returns.CustomerReturn) error {
	clone := *ret
	r.returns[ret.ID] = &clone
	ret.ClearDomainEvents()
	return nil
}

func (r *fakeReturnRepository) SaveWithLock(_ context.Context, ret *returns.CustomerReturn) error {
	stored, ok := r.returns[ret.ID]
	if !ok {
		return shared.NewNotFoundError("RETURN_NOT_FOUND", "Return not found")
	}
	if stored.Version != ret.Version {
		return shared.ErrConcurrencyConflict
	}
	ret.Version++
	clone := *ret
	r.returns[ret.ID] = &clone
	ret.ClearDomainEvents()
	return nil
}

func (r *fakeReturnRepository) NextNumber(_ context.Context) (string, error) {
	return fmt.Sprintf("RMA-2026-%05d", len(r.returns)+1), nil
}

func (r *fakeReturnRepository) HasOpenItemForUnit(_ context.Context, unitID uuid.UUID) (bool, error) {
	for _, ret := range r.returns {
		for idx := range ret.Items {
			item := &ret.Items[idx]
			if item.InventoryUnitID == unitID && item.ReceptionStatus != returns.ReceptionStatusCanceled {
				return true, nil
			}
		}
	}
	return false, nil
}

// fakeOrderRepository is a minimal order.Repository double for handlers
// that only look orders up
type fakeOrderRepository struct {
	orders map[uuid.UUID]*order.Order
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	}
	return o, nil
}

func (r *fakeOrderRepository) FindByNumber(_ context.Context, _ string) (*order.Order, error) {
	return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
}

func (r *fakeOrderRepository) FindAll(_ context.Context, filter order.Filter) (*shared.Paginated[order.Order], error) {
	page := shared.NewPaginated([]order.Order{}, 0, filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeOrderRepository) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepository) SaveWithLock(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepository) NextNumber(_ context.Context) (string, error) {
	return "R-2026-00001", nil
}

func (r *fakeOrderRepository) CountByState(_ context.Context, _ order.State) (int64, error) {
	return 0, nil
}

// fakePriceResolver resolves fixed variant details
type fakePriceResolver struct {
	variants map[uuid.UUID]order.VariantInfo
}

func (p *fakePriceResolver) Resolve(_ context.Context, variantID uuid.UUID, currency valueobject.Currency) (valueobject.Money, order.VariantInfo, error) {
	info, ok := p.variants[variantID]
	if !ok {
		return valueobject.Money{}, order.VariantInfo{}, shared.NewValidationError("VARIANT_NOT_PRICED", "Variant has no price in this currency")
	}
	price, err := valueobject.NewMoney(1000, currency)
	if err != nil {
		return valueobject.Money{}, order.VariantInfo{}, err
	}
	return price, info, nil
}
