package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/query"
)

// Stores lists and manages the signed-in user's stores. It is not scoped by
// the active store.
type Stores struct {
	cat  *Catalog
	busy atomic.Int32
}

const storesDomain = "stores"

func (s *Stores) ListKey() query.Key {
	return query.NewKey(storesDomain, "list", 0)
}

func (s *Stores) ItemKey(id int64) query.Key {
	return query.NewKey(storesDomain, "detail", id)
}

func (s *Stores) Busy() bool {
	return s.busy.Load() > 0
}

func (s *Stores) List(ctx context.Context) ([]models.Store, error) {
	stores, err := query.Fetch(ctx, s.cat.cache, s.ListKey(), func(ctx context.Context) ([]models.Store, error) {
		var stores []models.Store
		if err := s.cat.client.Get(ctx, "/stores", nil, &stores); err != nil {
			return nil, fmt.Errorf("failed to list stores: %w", err)
		}
		if stores == nil {
			stores = []models.Store{}
		}
		return stores, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(stores), nil
}

func (s *Stores) Get(ctx context.Context, id int64) (models.Store, error) {
	return query.Fetch(ctx, s.cat.cache, s.ItemKey(id), func(ctx context.Context) (models.Store, error) {
		var store models.Store
		if err := s.cat.client.Get(ctx, "/stores/"+strconv.FormatInt(id, 10), nil, &store); err != nil {
			return store, fmt.Errorf("failed to get store %d: %w", id, err)
		}
		return store, nil
	})
}

// Create onboards a new store. It does not change the active store.
func (s *Stores) Create(ctx context.Context, input models.StoreInput) (models.Store, error) {
	s.busy.Add(1)
	defer s.busy.Add(-1)

	var created models.Store
	if err := s.cat.client.Post(ctx, "/stores", nil, input, &created); err != nil {
		return models.Store{}, s.cat.fail(fmt.Errorf("failed to create store: %w", err))
	}
	query.Update(s.cat.cache, s.ListKey(), func(stores []models.Store) []models.Store {
		return append(slices.Clone(stores), created)
	})
	s.cat.cache.Set(s.ItemKey(created.ID), created)
	s.invalidate()
	s.cat.notifier.Success("Store created successfully")
	return created, nil
}

// Update replaces a store's settings, payment and delivery configuration.
func (s *Stores) Update(ctx context.Context, id int64, input models.StoreInput) (models.Store, error) {
	s.busy.Add(1)
	defer s.busy.Add(-1)

	var updated models.Store
	if err := s.cat.client.Put(ctx, "/stores/"+strconv.FormatInt(id, 10), nil, input, &updated); err != nil {
		return models.Store{}, s.cat.fail(fmt.Errorf("failed to update store %d: %w", id, err))
	}
	query.Update(s.cat.cache, s.ListKey(), func(stores []models.Store) []models.Store {
		out := slices.Clone(stores)
		for i := range out {
			if out[i].ID == id {
				out[i] = updated
			}
		}
		return out
	})
	s.cat.cache.Set(s.ItemKey(id), updated)
	s.invalidate()
	s.cat.cache.InvalidateStore(id)
	s.cat.notifier.Success("Store updated successfully")
	return updated, nil
}

func (s *Stores) invalidate() {
	s.cat.cache.Invalidate(func(k query.Key) bool { return k.Domain == storesDomain })
}
