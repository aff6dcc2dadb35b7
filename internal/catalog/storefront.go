package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/query"
)

// Storefront is the public, shopper-facing view of a store. It takes the
// store explicitly instead of reading the active one.
type Storefront struct {
	cat *Catalog
}

func (s *Storefront) Store(ctx context.Context, storeID int64) (query.Result[models.Store], error) {
	if storeID == 0 {
		return query.Result[models.Store]{Disabled: true}, nil
	}
	store, err := query.Fetch(ctx, s.cat.cache, query.NewKey("storefront", "store", storeID), func(ctx context.Context) (models.Store, error) {
		var store models.Store
		if err := s.cat.client.Get(ctx, "/storefront/"+strconv.FormatInt(storeID, 10), nil, &store); err != nil {
			return store, fmt.Errorf("failed to load storefront %d: %w", storeID, err)
		}
		return store, nil
	})
	if err != nil {
		return query.Result[models.Store]{}, err
	}
	return query.Result[models.Store]{Data: store}, nil
}

// Products lists the store's visible products.
func (s *Storefront) Products(ctx context.Context, storeID int64) (query.Result[[]models.Product], error) {
	if storeID == 0 {
		return query.Result[[]models.Product]{Disabled: true}, nil
	}
	products, err := query.Fetch(ctx, s.cat.cache, StorefrontProductsKey(storeID), func(ctx context.Context) ([]models.Product, error) {
		var products []models.Product
		path := fmt.Sprintf("/storefront/%d/products", storeID)
		if err := s.cat.client.Get(ctx, path, nil, &products); err != nil {
			return nil, fmt.Errorf("failed to load storefront products: %w", err)
		}
		if products == nil {
			products = []models.Product{}
		}
		return products, nil
	})
	if err != nil {
		return query.Result[[]models.Product]{}, err
	}
	return query.Result[[]models.Product]{Data: slices.Clone(products)}, nil
}

func StorefrontProductsKey(storeID int64) query.Key {
	return query.NewKey("storefront", "products", storeID)
}
