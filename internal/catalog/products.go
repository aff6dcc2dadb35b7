package catalog

import (
	"context"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/query"
)

type Products struct {
	*Resource[models.Product, models.ProductInput, models.ProductPatch]
}

func newProducts(c *Catalog) *Products {
	return &Products{newResource[models.Product, models.ProductInput, models.ProductPatch](c, resourceInfo[models.Product]{
		noun:     "Product",
		path:     "/products",
		domain:   "inventory",
		resource: "products",
		id:       func(p models.Product) int64 { return p.ID },
	})}
}

// AdjustStock sets a product's quantity without notifying the user or
// invalidating the store. Checkout uses it for post-order decrements.
func (p *Products) AdjustStock(ctx context.Context, id int64, quantity int) (models.Product, error) {
	storeID, ok := p.cat.scope.ActiveStoreID()
	if !ok {
		return models.Product{}, ErrNoActiveStore
	}
	if quantity < 0 {
		logger.Warningf("clamping stock of product %d from %d to 0", id, quantity)
		quantity = 0
	}
	defer p.begin()()
	return p.update(ctx, storeID, id, models.ProductPatch{Quantity: &quantity})
}

// Lookup indexes the last fetched products of storeID by id, whether or not
// they are stale.
func (p *Products) Lookup(storeID int64) (map[int64]models.Product, bool) {
	items, ok := query.Peek[[]models.Product](p.cat.cache, p.ListKey(storeID))
	if !ok {
		return nil, false
	}
	return indexProducts(items), true
}

// LoadLookup is Lookup, fetching the product list first if it was never
// loaded.
func (p *Products) LoadLookup(ctx context.Context, storeID int64) (map[int64]models.Product, error) {
	if byID, ok := p.Lookup(storeID); ok {
		return byID, nil
	}
	items, err := p.list(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return indexProducts(items), nil
}

func indexProducts(items []models.Product) map[int64]models.Product {
	byID := make(map[int64]models.Product, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}
