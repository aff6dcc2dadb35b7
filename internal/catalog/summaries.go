package catalog

import (
	"context"
	"fmt"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/query"
)

// Summaries are the dashboard aggregates. They are never patched locally;
// store invalidation refreshes them.
type Summaries struct {
	cat *Catalog
}

func SummaryKey(domain string, storeID int64) query.Key {
	return query.NewKey(domain, "summary", storeID)
}

func (s *Summaries) Inventory(ctx context.Context) (query.Result[models.InventorySummary], error) {
	return fetchSummary[models.InventorySummary](ctx, s.cat, "inventory")
}

func (s *Summaries) Orders(ctx context.Context) (query.Result[models.OrderSummary], error) {
	return fetchSummary[models.OrderSummary](ctx, s.cat, "orders")
}

func (s *Summaries) Customers(ctx context.Context) (query.Result[models.CustomerSummary], error) {
	return fetchSummary[models.CustomerSummary](ctx, s.cat, "customers")
}

func fetchSummary[T any](ctx context.Context, cat *Catalog, domain string) (query.Result[T], error) {
	storeID, ok := cat.scope.ActiveStoreID()
	if !ok {
		return query.Result[T]{Disabled: true}, nil
	}
	summary, err := query.Fetch(ctx, cat.cache, SummaryKey(domain, storeID), func(ctx context.Context) (T, error) {
		var summary T
		if err := cat.client.Get(ctx, "/summaries/"+domain, api.StoreQuery(storeID), &summary); err != nil {
			return summary, fmt.Errorf("failed to load %s summary: %w", domain, err)
		}
		return summary, nil
	})
	if err != nil {
		return query.Result[T]{}, err
	}
	return query.Result[T]{Data: summary}, nil
}
