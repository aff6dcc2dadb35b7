package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/query"
)

// Stamper is a create payload that can be bound to a store.
type Stamper[C any] interface {
	WithStore(storeID int64) C
}

// Patch is a partial update that can be applied locally.
type Patch[T any] interface {
	Apply(T) T
}

type resourceInfo[T any] struct {
	noun     string
	path     string
	domain   string
	resource string
	id       func(T) int64
}

// Resource is the list/get/create/update/delete contract shared by every
// store-scoped entity. T is the entity, C its create payload and U its patch.
type Resource[T any, C Stamper[C], U Patch[T]] struct {
	cat  *Catalog
	info resourceInfo[T]
	busy atomic.Int32
}

func newResource[T any, C Stamper[C], U Patch[T]](cat *Catalog, info resourceInfo[T]) *Resource[T, C, U] {
	return &Resource[T, C, U]{cat: cat, info: info}
}

// ListKey is the cache key of the store's collection. Single entities hang
// off it so store invalidation reaches both.
func (r *Resource[T, C, U]) ListKey(storeID int64) query.Key {
	return query.NewKey(r.info.domain, r.info.resource, storeID)
}

func (r *Resource[T, C, U]) ItemKey(storeID, id int64) query.Key {
	return r.ListKey(storeID).WithID(id)
}

func (r *Resource[T, C, U]) itemPath(id int64) string {
	return r.info.path + "/" + strconv.FormatInt(id, 10)
}

// Busy reports whether a write on this resource is outstanding.
func (r *Resource[T, C, U]) Busy() bool {
	return r.busy.Load() > 0
}

func (r *Resource[T, C, U]) begin() func() {
	r.busy.Add(1)
	return func() { r.busy.Add(-1) }
}

// List returns the active store's collection. Without an active store the
// result is disabled and nothing is fetched.
func (r *Resource[T, C, U]) List(ctx context.Context) (query.Result[[]T], error) {
	storeID, ok := r.cat.scope.ActiveStoreID()
	if !ok {
		return query.Result[[]T]{Disabled: true}, nil
	}
	items, err := r.list(ctx, storeID)
	if err != nil {
		return query.Result[[]T]{}, err
	}
	return query.Result[[]T]{Data: slices.Clone(items)}, nil
}

func (r *Resource[T, C, U]) list(ctx context.Context, storeID int64) ([]T, error) {
	return query.Fetch(ctx, r.cat.cache, r.ListKey(storeID), func(ctx context.Context) ([]T, error) {
		var items []T
		if err := r.cat.client.Get(ctx, r.info.path, api.StoreQuery(storeID), &items); err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", r.info.resource, err)
		}
		if items == nil {
			items = []T{}
		}
		return items, nil
	})
}

func (r *Resource[T, C, U]) Get(ctx context.Context, id int64) (query.Result[T], error) {
	storeID, ok := r.cat.scope.ActiveStoreID()
	if !ok {
		return query.Result[T]{Disabled: true}, nil
	}
	item, err := query.Fetch(ctx, r.cat.cache, r.ItemKey(storeID, id), func(ctx context.Context) (T, error) {
		var item T
		if err := r.cat.client.Get(ctx, r.itemPath(id), api.StoreQuery(storeID), &item); err != nil {
			return item, fmt.Errorf("failed to get %s %d: %w", r.info.noun, id, err)
		}
		return item, nil
	})
	if err != nil {
		return query.Result[T]{}, err
	}
	return query.Result[T]{Data: item}, nil
}

// Create posts the payload for the active store, appends the result to the
// cached list and invalidates everything else cached for the store.
func (r *Resource[T, C, U]) Create(ctx context.Context, input C) (T, error) {
	var zero T
	storeID, err := r.cat.writeScope()
	if err != nil {
		return zero, err
	}
	defer r.begin()()

	var created T
	if err := r.cat.client.Post(ctx, r.info.path, api.StoreQuery(storeID), input.WithStore(storeID), &created); err != nil {
		return zero, r.cat.fail(fmt.Errorf("failed to create %s: %w", r.info.noun, err))
	}

	query.Update(r.cat.cache, r.ListKey(storeID), func(items []T) []T {
		return append(slices.Clone(items), created)
	})
	r.cat.cache.Set(r.ItemKey(storeID, r.info.id(created)), created)
	r.cat.cache.InvalidateStore(storeID)
	r.cat.notifier.Success(r.info.noun + " created successfully")
	return created, nil
}

// Update patches the cached list entry and the cached entity before the
// request goes out. A failed request puts the previous values back.
func (r *Resource[T, C, U]) Update(ctx context.Context, id int64, patch U) (T, error) {
	var zero T
	storeID, err := r.cat.writeScope()
	if err != nil {
		return zero, err
	}
	defer r.begin()()

	updated, err := r.update(ctx, storeID, id, patch)
	if err != nil {
		return zero, r.cat.fail(err)
	}
	r.cat.cache.InvalidateStore(storeID)
	r.cat.notifier.Success(r.info.noun + " updated successfully")
	return updated, nil
}

func (r *Resource[T, C, U]) update(ctx context.Context, storeID, id int64, patch U) (T, error) {
	listKey, itemKey := r.ListKey(storeID), r.ItemKey(storeID, id)

	prevItem, hadItem := query.Peek[T](r.cat.cache, itemKey)
	var prevInList T
	var inList bool
	query.Update(r.cat.cache, listKey, func(items []T) []T {
		out := slices.Clone(items)
		for i := range out {
			if r.info.id(out[i]) == id {
				prevInList, inList = out[i], true
				out[i] = patch.Apply(out[i])
			}
		}
		return out
	})
	query.Update(r.cat.cache, itemKey, func(item T) T { return patch.Apply(item) })

	var updated T
	if err := r.cat.client.Put(ctx, r.itemPath(id), api.StoreQuery(storeID), patch, &updated); err != nil {
		if inList {
			r.replace(listKey, id, prevInList)
		}
		if hadItem {
			r.cat.cache.Set(itemKey, prevItem)
		}
		return updated, fmt.Errorf("failed to update %s %d: %w", r.info.noun, id, err)
	}

	r.replace(listKey, id, updated)
	r.cat.cache.Set(itemKey, updated)
	return updated, nil
}

func (r *Resource[T, C, U]) replace(listKey query.Key, id int64, item T) {
	query.Update(r.cat.cache, listKey, func(items []T) []T {
		out := slices.Clone(items)
		for i := range out {
			if r.info.id(out[i]) == id {
				out[i] = item
			}
		}
		return out
	})
}

// Delete removes the entity from the cache first. A failed request restores
// it at its old position.
func (r *Resource[T, C, U]) Delete(ctx context.Context, id int64) error {
	storeID, err := r.cat.writeScope()
	if err != nil {
		return err
	}
	defer r.begin()()
	return r.delete(ctx, storeID, id)
}

func (r *Resource[T, C, U]) delete(ctx context.Context, storeID, id int64) error {
	listKey, itemKey := r.ListKey(storeID), r.ItemKey(storeID, id)

	var removed T
	index := -1
	query.Update(r.cat.cache, listKey, func(items []T) []T {
		out := make([]T, 0, len(items))
		for i, item := range items {
			if r.info.id(item) == id {
				removed, index = item, i
				continue
			}
			out = append(out, item)
		}
		return out
	})
	prevItem, hadItem := query.Peek[T](r.cat.cache, itemKey)
	r.cat.cache.Remove(itemKey)

	if err := r.cat.client.Delete(ctx, r.itemPath(id), api.StoreQuery(storeID)); err != nil {
		if index >= 0 {
			query.Update(r.cat.cache, listKey, func(items []T) []T {
				return slices.Insert(slices.Clone(items), min(index, len(items)), removed)
			})
		}
		if hadItem {
			r.cat.cache.Set(itemKey, prevItem)
		}
		return r.cat.fail(fmt.Errorf("failed to delete %s %d: %w", r.info.noun, id, err))
	}

	r.cat.cache.InvalidateStore(storeID)
	r.cat.notifier.Success(r.info.noun + " deleted successfully")
	return nil
}
