package query

import (
	"context"
	"fmt"
)

// Fetch returns the cached value for key, loading it with fn when it is
// missing, stale or invalidated.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %s has type %T, want %T", key, v, zero)
	}
	return out, nil
}

// Peek returns the cached value for key without fetching. It reports false
// when nothing is cached or the value has another type.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Peek(key)
	if !ok {
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Update rewrites a cached value of type T. Values of another type are left
// untouched.
func Update[T any](c *Cache, key Key, fn func(T) T) bool {
	return c.Update(key, func(old any) any {
		typed, ok := old.(T)
		if !ok {
			return old
		}
		return fn(typed)
	})
}

// Result is what a read operation hands back. Disabled is set when the query
// could not run because it has no store scope; that is not a failure.
type Result[T any] struct {
	Data     T
	Disabled bool
}
