package catalog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/notify"
	"github.com/webtray/webtray/internal/query"
	"github.com/webtray/webtray/internal/server/servertest"
)

type testScope struct {
	id int64
}

func (s *testScope) ActiveStoreID() (int64, bool) {
	return s.id, s.id != 0
}

// hookBackend lets a test observe or break individual calls.
type hookBackend struct {
	Backend
	beforePut func()
	afterGet  func(path string)
	deleteErr error
}

func (h *hookBackend) Get(ctx context.Context, path string, q url.Values, out any) error {
	err := h.Backend.Get(ctx, path, q, out)
	if h.afterGet != nil {
		h.afterGet(path)
	}
	return err
}

func (h *hookBackend) Put(ctx context.Context, path string, q url.Values, body, out any) error {
	if h.beforePut != nil {
		h.beforePut()
	}
	return h.Backend.Put(ctx, path, q, body, out)
}

func (h *hookBackend) Delete(ctx context.Context, path string, q url.Values) error {
	if h.deleteErr != nil {
		return h.deleteErr
	}
	return h.Backend.Delete(ctx, path, q)
}

type harness struct {
	backend *servertest.Backend
	hooks   *hookBackend
	cat     *Catalog
	cache   *query.Cache
	scope   *testScope
	notes   *notify.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := servertest.Start(t)
	hooks := &hookBackend{Backend: api.New(backend.URL, 5*time.Second, nil)}
	cache := query.New()
	scope := &testScope{id: backend.Pantry.ID}
	notes := &notify.Recorder{}
	h := &harness{
		backend: backend,
		hooks:   hooks,
		cat:     New(hooks, cache, scope, notes),
		cache:   cache,
		scope:   scope,
		notes:   notes,
	}
	t.Cleanup(cache.Wait)
	return h
}

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestReadsAreDisabledWithoutStore(t *testing.T) {
	h := newHarness(t)
	h.scope.id = 0
	ctx := context.Background()

	products, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.True(t, products.Disabled)

	order, err := h.cat.Orders.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, order.Disabled)

	summary, err := h.cat.Summaries.Inventory(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Disabled)

	assert.Empty(t, h.backend.Requests())
	assert.Empty(t, h.notes.All())
}

func TestWritesRequireStore(t *testing.T) {
	h := newHarness(t)
	h.scope.id = 0

	_, err := h.cat.Products.Create(context.Background(), models.ProductInput{Name: "Palm Wine"})
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.ErrorIs(t, err, ErrNoActiveStore)

	err = h.cat.Categories.Delete(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoActiveStore)

	assert.Equal(t, []string{NoStoreMessage, NoStoreMessage}, h.notes.Errors())
	assert.Empty(t, h.backend.Requests())
}

func TestListIsCachedPerStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zobo", "Chapman"}, productNames(first.Data))

	_, err = h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/api/v1/products"))

	h.scope.id = h.backend.Crafts.ID
	other, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Necklace"}, productNames(other.Data))
	assert.Equal(t, 2, h.backend.Count(http.MethodGet, "/api/v1/products"))
}

func TestEmptyListIsNotAnError(t *testing.T) {
	h := newHarness(t)
	orders, err := h.cat.Orders.List(context.Background())
	require.NoError(t, err)
	assert.False(t, orders.Disabled)
	assert.NotNil(t, orders.Data)
	assert.Empty(t, orders.Data)
}

func TestGetPropagatesNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.cat.Products.Get(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestCreateAppearsOnlyInItsStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	beverages := h.backend.Category(t, h.backend.Pantry.ID, "Beverages")

	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)

	created, err := h.cat.Products.Create(ctx, models.ProductInput{
		CategoryID: beverages.ID,
		Name:       "Palm Wine",
		Price:      decimal.NewFromInt(950),
		Quantity:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, h.backend.Pantry.ID, created.StoreID)

	cached, ok := query.Peek[[]models.Product](h.cache, h.cat.Products.ListKey(h.backend.Pantry.ID))
	require.True(t, ok)
	assert.Contains(t, productNames(cached), "Palm Wine")
	assert.Equal(t, []string{"Product created successfully"}, successes(h.notes))

	h.cache.Wait()
	h.scope.id = h.backend.Crafts.ID
	other, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, productNames(other.Data), "Palm Wine")

	h.scope.id = h.backend.Pantry.ID
	again, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zobo", "Chapman", "Palm Wine"}, productNames(again.Data))
}

func TestCreateSurfacesServerMessage(t *testing.T) {
	h := newHarness(t)
	_, err := h.cat.Products.Create(context.Background(), models.ProductInput{CategoryID: 424242, Name: "Ghost"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.BadRequest))
	require.Len(t, h.notes.Errors(), 1)
	assert.Contains(t, h.notes.Errors()[0], "unknown category")
}

func TestMutationInvalidatesSummaries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	beverages := h.backend.Category(t, h.backend.Pantry.ID, "Beverages")

	before, err := h.cat.Summaries.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, before.Data.TotalProducts)

	_, err = h.cat.Products.Create(ctx, models.ProductInput{CategoryID: beverages.ID, Name: "Kunu", Quantity: 1})
	require.NoError(t, err)
	h.cache.Wait()

	after, ok := query.Peek[models.InventorySummary](h.cache, SummaryKey("inventory", h.backend.Pantry.ID))
	require.True(t, ok)
	assert.Equal(t, 3, after.TotalProducts)
}

func TestUpdatePatchesCachesBeforeTheServerAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	_, err = h.cat.Products.Get(ctx, zobo.ID)
	require.NoError(t, err)

	listKey := h.cat.Products.ListKey(h.backend.Pantry.ID)
	itemKey := h.cat.Products.ItemKey(h.backend.Pantry.ID, zobo.ID)
	name := "Zobo Deluxe"
	h.hooks.beforePut = func() {
		item, _ := query.Peek[models.Product](h.cache, itemKey)
		assert.Equal(t, name, item.Name)
		list, _ := query.Peek[[]models.Product](h.cache, listKey)
		assert.Equal(t, name, list[0].Name)
	}

	updated, err := h.cat.Products.Update(ctx, zobo.ID, models.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	// Both caches reflect the patch as soon as Update returns.
	item, ok := query.Peek[models.Product](h.cache, itemKey)
	require.True(t, ok)
	assert.Equal(t, name, item.Name)
	list, ok := query.Peek[[]models.Product](h.cache, listKey)
	require.True(t, ok)
	assert.Equal(t, name, list[0].Name)
	assert.Equal(t, "Chapman", list[1].Name)
}

func TestUpdateFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)

	negative := -4
	_, err = h.cat.Products.Update(ctx, zobo.ID, models.ProductPatch{Quantity: &negative})
	require.Error(t, err)

	list, _ := query.Peek[[]models.Product](h.cache, h.cat.Products.ListKey(h.backend.Pantry.ID))
	assert.Equal(t, 10, list[0].Quantity)
	assert.Equal(t, []string{"negative quantity not valid"}, h.notes.Errors())
	assert.False(t, h.cat.Busy())
}

func TestDeleteRemovesFromCaches(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	chapman := h.backend.Product(t, h.backend.Pantry.ID, "Chapman")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	_, err = h.cat.Products.Get(ctx, chapman.ID)
	require.NoError(t, err)

	require.NoError(t, h.cat.Products.Delete(ctx, chapman.ID))

	list, _ := query.Peek[[]models.Product](h.cache, h.cat.Products.ListKey(h.backend.Pantry.ID))
	assert.Equal(t, []string{"Zobo"}, productNames(list))
	_, ok := query.Peek[models.Product](h.cache, h.cat.Products.ItemKey(h.backend.Pantry.ID, chapman.ID))
	assert.False(t, ok)
}

func TestDeleteWinsOverRefetchInFlight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	_, err = h.cat.Products.Get(ctx, zobo.ID)
	require.NoError(t, err)

	// Hold the item refetch triggered by the update after the server has
	// answered it, then delete while it is parked.
	itemPath := "/products/" + strconv.FormatInt(zobo.ID, 10)
	parked := make(chan struct{}, 1)
	gate := make(chan struct{})
	h.hooks.afterGet = func(path string) {
		if path != itemPath {
			return
		}
		select {
		case parked <- struct{}{}:
		default:
		}
		<-gate
	}

	name := "Zobo 2"
	_, err = h.cat.Products.Update(ctx, zobo.ID, models.ProductPatch{Name: &name})
	require.NoError(t, err)
	select {
	case <-parked:
	case <-time.After(5 * time.Second):
		t.Fatal("item refetch never reached the backend")
	}

	require.NoError(t, h.cat.Products.Delete(ctx, zobo.ID))
	close(gate)
	h.cache.Wait()

	_, ok := query.Peek[models.Product](h.cache, h.cat.Products.ItemKey(h.backend.Pantry.ID, zobo.ID))
	assert.False(t, ok)
	list, _ := query.Peek[[]models.Product](h.cache, h.cat.Products.ListKey(h.backend.Pantry.ID))
	assert.NotContains(t, productNames(list), "Zobo 2")
}

func TestDeleteFailureRestoresPosition(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)

	h.hooks.deleteErr = &api.Error{Status: http.StatusBadGateway, Method: http.MethodDelete, Path: "/products"}
	err = h.cat.Products.Delete(ctx, zobo.ID)
	require.Error(t, err)

	list, _ := query.Peek[[]models.Product](h.cache, h.cat.Products.ListKey(h.backend.Pantry.ID))
	assert.Equal(t, []string{"Zobo", "Chapman"}, productNames(list))
	assert.Equal(t, []string{api.FallbackMessage}, h.notes.Errors())
}

func TestCategoryDeleteGuardUsesCachedProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	beverages := h.backend.Category(t, h.backend.Pantry.ID, "Beverages")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	h.backend.Reset()

	err = h.cat.Categories.Delete(ctx, beverages.ID)
	var inUse *CategoryInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 2, inUse.Products)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, []string{"Cannot delete this category because it has 2 products. Move or delete them first."}, h.notes.Errors())
	assert.Empty(t, h.backend.Requests())
}

func TestCategoryDeleteGuardLoadsProductsWhenUncached(t *testing.T) {
	h := newHarness(t)
	beverages := h.backend.Category(t, h.backend.Pantry.ID, "Beverages")

	err := h.cat.Categories.Delete(context.Background(), beverages.ID)
	var inUse *CategoryInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/api/v1/products"))
	assert.Zero(t, h.backend.Count(http.MethodDelete, "/api/v1/categories/"+itoa(beverages.ID)))
}

func TestEmptyCategoryDeleteIssuesOneRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	snacks := h.backend.Category(t, h.backend.Pantry.ID, "Snacks")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)
	categories, err := h.cat.Categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories.Data, 2)

	require.NoError(t, h.cat.Categories.Delete(ctx, snacks.ID))
	assert.Equal(t, 1, h.backend.Count(http.MethodDelete, "/api/v1/categories/"+itoa(snacks.ID)))

	cached, _ := query.Peek[[]models.Category](h.cache, h.cat.Categories.ListKey(h.backend.Pantry.ID))
	require.Len(t, cached, 1)
	assert.Equal(t, "Beverages", cached[0].Name)
	assert.Equal(t, []string{"Category deleted successfully"}, successes(h.notes))
}

func TestAdjustStockIsQuiet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")
	_, err := h.cat.Products.List(ctx)
	require.NoError(t, err)

	updated, err := h.cat.Products.AdjustStock(ctx, zobo.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	byID, ok := h.cat.Products.Lookup(h.backend.Pantry.ID)
	require.True(t, ok)
	assert.Equal(t, 7, byID[zobo.ID].Quantity)
	assert.Empty(t, h.notes.All())
	assert.False(t, h.cache.State(h.cat.Products.ListKey(h.backend.Pantry.ID)).Stale)
}

func TestOrderStatusChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	zobo := h.backend.Product(t, h.backend.Pantry.ID, "Zobo")

	order, err := h.cat.Orders.Create(ctx, models.OrderInput{
		Customer: models.CustomerDetails{Name: "Tolu", Email: "tolu@example.com", Phone: "08030000000", Address: "Lekki"},
		Items:    []models.OrderLineInput{{ProductID: zobo.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	shipped, err := h.cat.Orders.SetStatus(ctx, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	h.cache.Wait()

	customers, err := h.cat.Customers.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers.Data, 1)
	assert.Equal(t, 1, customers.Data[0].TotalOrders)
}

func TestStoresAndStorefront(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stores, err := h.cat.Stores.List(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	created, err := h.cat.Stores.Create(ctx, models.StoreInput{Name: "Ada's Kitchen", Currency: "NGN"})
	require.NoError(t, err)
	assert.Equal(t, "adas-kitchen", created.Slug)

	cached, _ := query.Peek[[]models.Store](h.cache, h.cat.Stores.ListKey())
	assert.Len(t, cached, 3)

	front, err := h.cat.Storefront.Products(ctx, h.backend.Crafts.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Necklace"}, productNames(front.Data))

	disabled, err := h.cat.Storefront.Store(ctx, 0)
	require.NoError(t, err)
	assert.True(t, disabled.Disabled)
}

func successes(r *notify.Recorder) []string {
	var out []string
	for _, n := range r.All() {
		if n.Kind == notify.KindSuccess {
			out = append(out, n.Message)
		}
	}
	return out
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
