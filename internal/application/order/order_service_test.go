package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// fakeOrderRepository is an in-memory order.Repository double
type fakeOrderRepository struct {
	orders map[uuid.UUID]*order.Order
	seq    int
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

func (r *fakeOrderRepository) FindByNumber(_ context.Context, number string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
}

func (r *fakeOrderRepository) FindAll(_ context.Context, filter order.Filter) (*shared.Paginated[order.Order], error) {
	items := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.State != nil && o.State != *filter.State {
			continue
		}
		items = append(items, *o)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeOrderRepository) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	o.ClearDomainEvents()
	return nil
}

func (r *fakeOrderRepository) SaveWithLock(_ context.Context, o *order.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return shared.NewNotFoundError("ORDER_NOT_FOUND", "Order not found")
	}
	if stored != o && stored.Version != o.Version {
		return shared.ErrConcurrencyConflict
	}
	o.Version++
	r.orders[o.ID] = o
	o.ClearDomainEvents()
	return nil
}

func (r *fakeOrderRepository) NextNumber(_ context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("R-2026-%05d", r.seq), nil
}

func (r *fakeOrderRepository) CountByState(_ context.Context, state order.State) (int64, error) {
	var count int64
	for _, o := range r.orders {
		if o.State == state {
			count++
		}
	}
	return count, nil
}

// fakePriceResolver returns a fixed price per registered variant
type fakePriceResolver struct {
	variants map[uuid.UUID]order.VariantInfo
	cents    map[uuid.UUID]int64
}

func newFakePriceResolver() *fakePriceResolver {
	return &fakePriceResolver{
		variants: make(map[uuid.UUID]order.VariantInfo),
		cents:    make(map[uuid.UUID]int64),
	}
}

func (p *fakePriceResolver) register(name, sku string, digital bool, cents int64) uuid.UUID {
	id := uuid.New()
	p.variants[id] = order.VariantInfo{VariantID: id, Name: name, SKU: sku, Digital: digital}
	p.cents[id] = cents
	return id
}

func (p *fakePriceResolver) Resolve(_ context.Context, variantID uuid.UUID, currency valueobject.Currency) (valueobject.Money, order.VariantInfo, error) {
	info, ok := p.variants[variantID]
	if !ok {
		return valueobject.Money{}, order.VariantInfo{}, shared.NewValidationError("VARIANT_NOT_PRICED", "Variant has no price in this currency")
	}
	price, err := valueobject.NewMoney(p.cents[variantID], currency)
	if err != nil {
		return valueobject.Money{}, order.VariantInfo{}, err
	}
	return price, info, nil
}

// fakePaymentSummarizer reports a configurable captured total
type fakePaymentSummarizer struct {
	captured int64
}

func (p *fakePaymentSummarizer) CapturedTotal(_ context.Context, _ uuid.UUID) (int64, error) {
	return p.captured, nil
}

// fakeRateProvider offers a fixed set of shipping rates
type fakeRateProvider struct {
	rates []order.ShippingRate
}

func (p *fakeRateProvider) RatesFor(_ context.Context, _ uuid.UUID) ([]order.ShippingRate, error) {
	return p.rates, nil
}

type orderServiceFixture struct {
	service  *OrderService
	repo     *fakeOrderRepository
	prices   *fakePriceResolver
	payments *fakePaymentSummarizer
	rates    *fakeRateProvider
}

func newOrderServiceFixture() *orderServiceFixture {
	repo := newFakeOrderRepository()
	prices := newFakePriceResolver()
	payments := &fakePaymentSummarizer{}
	standard := order.ShippingRate{MethodID: uuid.New(), Name: "Standard", CostCents: 500}
	rates := &fakeRateProvider{rates: []order.ShippingRate{standard}}
	return &orderServiceFixture{
		service:  NewOrderService(repo, prices, payments, rates),
		repo:     repo,
		prices:   prices,
		payments: payments,
		rates:    rates,
	}
}

func TestOrderServiceCreate(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()

	resp, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)

	assert.Equal(t, "R-2026-00001", resp.Number)
	assert.Equal(t, "CART", resp.State)
	assert.Equal(t, "USD", resp.Currency)
	assert.Empty(t, resp.Items)

	t.Run("rejects unknown currency", func(t *testing.T) {
		_, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "XXX"})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestOrderServiceAddItem(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()
	variantID := fx.prices.register("Widget", "WID-1", false, 1200)

	created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)

	resp, err := fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: variantID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Widget", resp.Items[0].Name)
	assert.Equal(t, int64(2400), resp.ItemTotalCents)

	t.Run("merges quantity for the same variant", func(t *testing.T) {
		resp, err := fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: variantID, Quantity: 1})
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 3, resp.Items[0].Quantity)
	})

	t.Run("unpriced variant returns validation error", func(t *testing.T) {
		_, err := fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: uuid.New(), Quantity: 1})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		_, err := fx.service.AddItem(ctx, uuid.New(), AddItemRequest{VariantID: variantID, Quantity: 1})
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestOrderServiceSetShippingMethod(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()
	variantID := fx.prices.register("Widget", "WID-1", false, 1200)

	created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	_, err = fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: variantID, Quantity: 1})
	require.NoError(t, err)
	_, err = fx.service.SetAddresses(ctx, created.ID, SetAddressesRequest{ShipAddressID: uuid.New(), BillAddressID: uuid.New()})
	require.NoError(t, err)
	_, err = fx.service.Next(ctx, created.ID)
	require.NoError(t, err)
	resp, err := fx.service.Next(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "DELIVERY", resp.State)

	t.Run("selects an offered rate and captures its cost", func(t *testing.T) {
		methodID := fx.rates.rates[0].MethodID
		resp, err := fx.service.SetShippingMethod(ctx, created.ID, SetShippingMethodRequest{ShippingMethodID: methodID})
		require.NoError(t, err)
		assert.Equal(t, int64(500), resp.ShipmentTotalCents)
		assert.Equal(t, int64(1700), resp.TotalCents)
	})

	t.Run("rejects a method not offered for the order", func(t *testing.T) {
		_, err := fx.service.SetShippingMethod(ctx, created.ID, SetShippingMethodRequest{ShippingMethodID: uuid.New()})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestOrderServiceCheckoutSequence(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()
	variantID := fx.prices.register("Widget", "WID-1", false, 1200)

	created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	_, err = fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: variantID, Quantity: 1})
	require.NoError(t, err)
	_, err = fx.service.SetAddresses(ctx, created.ID, SetAddressesRequest{ShipAddressID: uuid.New(), BillAddressID: uuid.New()})
	require.NoError(t, err)

	advance := func(t *testing.T, want string) {
		t.Helper()
		resp, err := fx.service.Next(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want, resp.State)
	}

	advance(t, "ADDRESS")
	advance(t, "DELIVERY")

	_, err = fx.service.SetShippingMethod(ctx, created.ID, SetShippingMethodRequest{ShippingMethodID: fx.rates.rates[0].MethodID})
	require.NoError(t, err)
	advance(t, "PAYMENT")

	t.Run("leaving payment requires full capture", func(t *testing.T) {
		fx.payments.captured = 0
		_, err := fx.service.Next(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})

	fx.payments.captured = 1700
	advance(t, "CONFIRM")
	advance(t, "COMPLETE")

	t.Run("advancing a complete order conflicts", func(t *testing.T) {
		_, err := fx.service.Next(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})
}

func TestOrderServiceSkipToPayment(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()
	digitalID := fx.prices.register("E-Book", "EBK-1", true, 900)
	physicalID := fx.prices.register("Widget", "WID-1", false, 1200)

	t.Run("fully digital cart jumps to payment", func(t *testing.T) {
		created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
		require.NoError(t, err)
		_, err = fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: digitalID, Quantity: 1})
		require.NoError(t, err)
		_, err = fx.service.SetAddresses(ctx, created.ID, SetAddressesRequest{ShipAddressID: uuid.New(), BillAddressID: uuid.New()})
		require.NoError(t, err)

		resp, err := fx.service.SkipToPayment(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "PAYMENT", resp.State)
	})

	t.Run("physical lines block the jump", func(t *testing.T) {
		created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
		require.NoError(t, err)
		_, err = fx.service.AddItem(ctx, created.ID, AddItemRequest{VariantID: physicalID, Quantity: 1})
		require.NoError(t, err)
		_, err = fx.service.SetAddresses(ctx, created.ID, SetAddressesRequest{ShipAddressID: uuid.New(), BillAddressID: uuid.New()})
		require.NoError(t, err)

		_, err = fx.service.SkipToPayment(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, shared.IsConflict(err))
	})
}

func TestOrderServiceCancel(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()

	created, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)

	resp, err := fx.service.Cancel(ctx, created.ID, CancelOrderRequest{Reason: "changed mind"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.State)
	assert.Equal(t, "changed mind", resp.CancelReason)
	require.NotNil(t, resp.CanceledAt)

	t.Run("canceling again is a no-op", func(t *testing.T) {
		before := fx.repo.orders[created.ID].Version
		resp, err := fx.service.Cancel(ctx, created.ID, CancelOrderRequest{Reason: "again"})
		require.NoError(t, err)
		assert.Equal(t, "CANCELED", resp.State)
		assert.Equal(t, "changed mind", resp.CancelReason)
		assert.Equal(t, before, fx.repo.orders[created.ID].Version)
	})
}

func TestOrderServiceList(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()

	first, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	_, err = fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	_, err = fx.service.Cancel(ctx, first.ID, CancelOrderRequest{})
	require.NoError(t, err)

	responses, total, err := fx.service.List(ctx, OrderListFilter{State: "CANCELED"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, responses, 1)
	assert.Equal(t, first.ID, responses[0].ID)

	t.Run("rejects unknown state filter", func(t *testing.T) {
		_, _, err := fx.service.List(ctx, OrderListFilter{State: "BOGUS"})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestOrderServiceStateSummary(t *testing.T) {
	ctx := context.Background()
	fx := newOrderServiceFixture()

	_, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	second, err := fx.service.Create(ctx, CreateOrderRequest{Currency: "USD"})
	require.NoError(t, err)
	_, err = fx.service.Cancel(ctx, second.ID, CancelOrderRequest{Reason: "test order"})
	require.NoError(t, err)

	summary, err := fx.service.StateSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Cart)
	assert.Equal(t, int64(1), summary.Canceled)
	assert.Zero(t, summary.Complete)
}
