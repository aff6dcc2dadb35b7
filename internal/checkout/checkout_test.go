package checkout

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/cart"
	"github.com/webtray/webtray/internal/catalog"
	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/notify"
	"github.com/webtray/webtray/internal/query"
	"github.com/webtray/webtray/internal/server/servertest"
	"github.com/webtray/webtray/internal/session"
	"github.com/webtray/webtray/internal/storage"
)

var buyer = models.CustomerDetails{
	Name:    "Tolu Bello",
	Email:   "tolu@example.com",
	Phone:   "08030000000",
	Address: "12 Admiralty Way, Lekki",
}

type fakeOrders struct {
	mu      sync.Mutex
	inputs  []models.OrderInput
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeOrders) Create(_ context.Context, input models.OrderInput) (models.Order, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Order{}, f.err
	}
	f.inputs = append(f.inputs, input)
	return models.Order{ID: 100, Reference: "WT-TEST", Status: models.OrderStatusPending}, nil
}

type fakeStock struct {
	mu       sync.Mutex
	products map[int64]models.Product
	fail     map[int64]bool
	adjusted map[int64]int
}

func newFakeStock(products ...models.Product) *fakeStock {
	s := &fakeStock{products: map[int64]models.Product{}, fail: map[int64]bool{}, adjusted: map[int64]int{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStock) LoadLookup(context.Context, int64) (map[int64]models.Product, error) {
	return s.products, nil
}

func (s *fakeStock) AdjustStock(_ context.Context, id int64, quantity int) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[id] {
		return models.Product{}, &api.Error{Status: http.StatusInternalServerError}
	}
	s.adjusted[id] = quantity
	return s.products[id], nil
}

type fakeCache struct {
	mu     sync.Mutex
	stores []int64
}

func (c *fakeCache) InvalidateStore(storeID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores = append(c.stores, storeID)
	return 1
}

var (
	zobo    = models.Product{ID: 1, Name: "Zobo", Price: decimal.NewFromInt(2000), Quantity: 10}
	chapman = models.Product{ID: 2, Name: "Chapman", Price: decimal.RequireFromString("1500.50"), Quantity: 3}
)

func TestValidationStopsAtCustomerFirst(t *testing.T) {
	orders := &fakeOrders{}
	notes := &notify.Recorder{}
	p := NewPlacer(orders, newFakeStock(zobo), session.StaticScope(7), &fakeCache{}, notes)

	missingName := buyer
	missingName.Name = ""
	_, err := p.Place(context.Background(), Draft{Customer: missingName})

	var invalid *ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Name", invalid.Field)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, []string{"Name is required"}, notes.Errors())
	assert.Empty(t, orders.inputs)
}

func TestValidationMessages(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		message string
	}{{
		name:    "bad email",
		draft:   Draft{Customer: models.CustomerDetails{Name: "A", Email: "nope", Phone: "08030000000", Address: "x"}, Lines: []Line{{1, 1}}},
		message: "Enter a valid email address",
	}, {
		name:    "short phone",
		draft:   Draft{Customer: models.CustomerDetails{Name: "A", Email: "a@b.co", Phone: "123", Address: "x"}, Lines: []Line{{1, 1}}},
		message: "Phone number is too short",
	}, {
		name:    "no address",
		draft:   Draft{Customer: models.CustomerDetails{Name: "A", Email: "a@b.co", Phone: "08030000000"}, Lines: []Line{{1, 1}}},
		message: "Delivery address is required",
	}, {
		name:    "no lines",
		draft:   Draft{Customer: buyer},
		message: "Add at least one item to the order",
	}, {
		name:    "zero quantity",
		draft:   Draft{Customer: buyer, Lines: []Line{{1, 0}}},
		message: "Item quantities must be at least 1",
	}}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			orders := &fakeOrders{}
			p := NewPlacer(orders, newFakeStock(zobo), session.StaticScope(7), &fakeCache{}, nil)
			_, err := p.Place(context.Background(), test.draft)
			require.Error(t, err)
			assert.Equal(t, test.message, err.Error())
			assert.Empty(t, orders.inputs)
		})
	}
}

func TestStockRecheckAbortsBeforeOrder(t *testing.T) {
	orders := &fakeOrders{}
	notes := &notify.Recorder{}
	soldDown := zobo
	soldDown.Quantity = 3
	p := NewPlacer(orders, newFakeStock(soldDown), session.StaticScope(7), &fakeCache{}, notes)

	_, err := p.Place(context.Background(), Draft{Customer: buyer, Lines: []Line{{ProductID: zobo.ID, Quantity: 5}}})
	var short *StockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 3, short.Available)
	assert.Contains(t, err.Error(), "Only 3 units available.")
	assert.True(t, errors.Is(err, errors.QuotaLimitExceeded))
	assert.Equal(t, []string{"Zobo: Only 3 units available."}, notes.Errors())
	assert.Empty(t, orders.inputs)
}

func TestStockRecheckSumsDuplicateLines(t *testing.T) {
	orders := &fakeOrders{}
	p := NewPlacer(orders, newFakeStock(chapman), session.StaticScope(7), &fakeCache{}, nil)

	_, err := p.Place(context.Background(), Draft{Customer: buyer, Lines: []Line{{chapman.ID, 2}, {chapman.ID, 2}}})
	assert.True(t, errors.Is(err, errors.QuotaLimitExceeded))
	assert.Empty(t, orders.inputs)
}

func TestUnknownProductIsRejected(t *testing.T) {
	p := NewPlacer(&fakeOrders{}, newFakeStock(zobo), session.StaticScope(7), &fakeCache{}, nil)
	_, err := p.Place(context.Background(), Draft{Customer: buyer, Lines: []Line{{ProductID: 42, Quantity: 1}}})
	assert.EqualError(t, err, "Product 42 is out of stock.")
}

func TestPartialDecrementFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	orders := &fakeOrders{}
	stock := newFakeStock(zobo, chapman)
	stock.fail[chapman.ID] = true
	cache := &fakeCache{}
	p := NewPlacer(orders, stock, session.StaticScope(7), cache, nil)

	c := cart.New(storage.NewMemoryStore(), 7)
	require.NoError(t, c.Add(ctx, zobo, 4))
	require.NoError(t, c.Add(ctx, chapman, 1))

	receipt, err := p.Checkout(ctx, c, buyer, "leave at gate")
	require.NoError(t, err)
	assert.Equal(t, int64(100), receipt.Order.ID)
	assert.Equal(t, 1, receipt.Adjusted)
	assert.Equal(t, []int64{chapman.ID}, receipt.Failed)
	assert.Equal(t, map[int64]int{zobo.ID: 6}, stock.adjusted)
	assert.True(t, c.Empty())
	assert.Equal(t, []int64{7}, cache.stores)

	require.Len(t, orders.inputs, 1)
	assert.Equal(t, "leave at gate", orders.inputs[0].Notes)
	assert.Len(t, orders.inputs[0].Items, 2)
}

func TestFailedOrderKeepsCart(t *testing.T) {
	ctx := context.Background()
	orders := &fakeOrders{err: &api.Error{Status: http.StatusBadRequest, Message: "Store is closed"}}
	stock := newFakeStock(zobo)
	p := NewPlacer(orders, stock, session.StaticScope(7), &fakeCache{}, nil)

	c := cart.New(storage.NewMemoryStore(), 7)
	require.NoError(t, c.Add(ctx, zobo, 1))

	_, err := p.Checkout(ctx, c, buyer, "")
	require.Error(t, err)
	assert.Equal(t, "Store is closed", api.Message(err))
	assert.Equal(t, 1, c.Count())
	assert.Empty(t, stock.adjusted)
	assert.False(t, p.Busy())
}

func TestCheckoutRejectsCartOfAnotherStore(t *testing.T) {
	ctx := context.Background()
	orders := &fakeOrders{}
	p := NewPlacer(orders, newFakeStock(zobo), session.StaticScope(7), &fakeCache{}, nil)
	c := cart.New(storage.NewMemoryStore(), 9)
	require.NoError(t, c.Add(ctx, zobo, 1))

	_, err := p.Checkout(ctx, c, buyer, "")
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Empty(t, orders.inputs)
}

func TestNoActiveStore(t *testing.T) {
	notes := &notify.Recorder{}
	p := NewPlacer(&fakeOrders{}, newFakeStock(zobo), session.StaticScope(0), &fakeCache{}, notes)
	_, err := p.Place(context.Background(), Draft{Customer: buyer, Lines: []Line{{zobo.ID, 1}}})
	assert.ErrorIs(t, err, catalog.ErrNoActiveStore)
	assert.Equal(t, []string{catalog.NoStoreMessage}, notes.Errors())
}

func TestSecondSubmissionWhileBusy(t *testing.T) {
	orders := &fakeOrders{started: make(chan struct{}), release: make(chan struct{})}
	p := NewPlacer(orders, newFakeStock(zobo), session.StaticScope(7), &fakeCache{}, nil)
	draft := Draft{Customer: buyer, Lines: []Line{{zobo.ID, 1}}}

	done := make(chan error, 1)
	go func() {
		_, err := p.Place(context.Background(), draft)
		done <- err
	}()

	select {
	case <-orders.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the order request")
	}
	assert.True(t, p.Busy())
	_, err := p.Place(context.Background(), draft)
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(orders.release)
	require.NoError(t, <-done)
	assert.False(t, p.Busy())
}

// End to end against the dev backend: the order is created once and each
// line's stock is written back.
func TestCheckoutAgainstBackend(t *testing.T) {
	ctx := context.Background()
	backend := servertest.Start(t)
	cache := query.New()
	t.Cleanup(cache.Wait)
	notes := &notify.Recorder{}
	cat := catalog.New(api.New(backend.URL, 5*time.Second, nil), cache, session.StaticScope(backend.Pantry.ID), notes)
	placer := ForCatalog(cat, notes)

	products, err := cat.Products.List(ctx)
	require.NoError(t, err)
	c := cart.New(storage.NewMemoryStore(), backend.Pantry.ID)
	for _, p := range products.Data {
		require.NoError(t, c.Add(ctx, p, 1))
	}
	require.NoError(t, c.UpdateQuantity(ctx, products.Data[0].ID, 1))

	receipt, err := placer.Checkout(ctx, c, buyer, "")
	require.NoError(t, err)
	assert.Empty(t, receipt.Failed)
	assert.True(t, decimal.RequireFromString("5500.50").Equal(receipt.Order.Total))
	assert.True(t, c.Empty())

	assert.Equal(t, 1, backend.Count(http.MethodPost, "/api/v1/orders"))
	zobo := backend.Product(t, backend.Pantry.ID, "Zobo")
	chapman := backend.Product(t, backend.Pantry.ID, "Chapman")
	assert.Equal(t, 8, zobo.Quantity)
	assert.Equal(t, 2, chapman.Quantity)

	cache.Wait()
	byID, ok := cat.Products.Lookup(backend.Pantry.ID)
	require.True(t, ok)
	assert.Equal(t, 8, byID[zobo.ID].Quantity)
}

// A cart for a store other than the active one is placed against its own
// store once the catalog is scoped to it.
func TestCheckoutCartOfOtherStore(t *testing.T) {
	ctx := context.Background()
	backend := servertest.Start(t)
	cache := query.New()
	t.Cleanup(cache.Wait)
	notes := &notify.Recorder{}
	cat := catalog.New(api.New(backend.URL, 5*time.Second, nil), cache, session.StaticScope(backend.Pantry.ID), notes)

	necklace := backend.Product(t, backend.Crafts.ID, "Necklace")
	c := cart.New(storage.NewMemoryStore(), backend.Crafts.ID)
	require.NoError(t, c.Add(ctx, necklace, 2))

	_, err := ForCatalog(cat, notes).Checkout(ctx, c, buyer, "")
	require.Error(t, err)
	assert.Equal(t, 2, c.Count())

	receipt, err := ForCatalog(cat.WithScope(session.StaticScope(c.StoreID())), notes).Checkout(ctx, c, buyer, "")
	require.NoError(t, err)
	assert.Equal(t, backend.Crafts.ID, receipt.Order.StoreID)
	assert.True(t, decimal.NewFromInt(50000).Equal(receipt.Order.Total))
	assert.True(t, c.Empty())
	assert.Equal(t, 0, backend.Product(t, backend.Crafts.ID, "Necklace").Quantity)
	assert.Equal(t, 10, backend.Product(t, backend.Pantry.ID, "Zobo").Quantity)

	active, ok := cat.ActiveStoreID()
	require.True(t, ok)
	assert.Equal(t, backend.Pantry.ID, active)
}

// The last fetched stock is stale: someone bought two units elsewhere.
func TestCheckoutUsesLastFetchedStock(t *testing.T) {
	ctx := context.Background()
	backend := servertest.Start(t)
	cache := query.New()
	t.Cleanup(cache.Wait)
	notes := &notify.Recorder{}
	cat := catalog.New(api.New(backend.URL, 5*time.Second, nil), cache, session.StaticScope(backend.Pantry.ID), notes)

	zobo := backend.Product(t, backend.Pantry.ID, "Zobo")
	c := cart.New(storage.NewMemoryStore(), backend.Pantry.ID)
	require.NoError(t, c.Add(ctx, zobo, 5))

	three := 3
	_, err := backend.Repo.UpdateProduct(backend.Pantry.ID, zobo.ID, models.ProductPatch{Quantity: &three})
	require.NoError(t, err)
	_, err = cat.Products.List(ctx)
	require.NoError(t, err)
	backend.Reset()

	_, err = ForCatalog(cat, notes).Checkout(ctx, c, buyer, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only 3 units available.")
	assert.Empty(t, backend.Requests())
	assert.Equal(t, 5, c.Count())
}
