package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(calls *int32, value []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "inventory/products/7", NewKey("inventory", "products", 7).String())
	assert.Equal(t, "inventory/products/undefined", NewKey("inventory", "products", 0).String())
	assert.Equal(t, "inventory/products/7/42", NewKey("inventory", "products", 7).WithID(42).String())
	assert.True(t, NewKey("orders", "list", 7).HasStore(7))
	assert.False(t, NewKey("orders", "list", 7).HasStore(9))
	assert.False(t, NewKey("stores", "list", 0).HasStore(0))
}

func TestFetchServesFreshDataFromCache(t *testing.T) {
	c := New(WithStaleTime(time.Minute))
	key := NewKey("inventory", "products", 7)
	var calls int32

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), c, key, counter(&calls, []string{"rice"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"rice"}, got)
	}
	assert.EqualValues(t, 1, calls)
}

func TestFetchRefetchesAfterStaleTime(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(WithClock(clk), WithStaleTime(30*time.Second))
	key := NewKey("inventory", "products", 7)
	var calls int32

	_, err := Fetch(context.Background(), c, key, counter(&calls, []string{"rice"}))
	require.NoError(t, err)
	clk.Advance(10 * time.Second)
	_, err = Fetch(context.Background(), c, key, counter(&calls, []string{"rice"}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)

	clk.Advance(time.Minute)
	_, err = Fetch(context.Background(), c, key, counter(&calls, []string{"rice"}))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)
}

func TestFetchDeduplicatesConcurrentLoads(t *testing.T) {
	c := New()
	key := NewKey("orders", "list", 3)
	release := make(chan struct{})
	var calls int32

	fn := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"order-1"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Fetch(context.Background(), c, key, fn)
			assert.NoError(t, err)
			assert.Equal(t, []string{"order-1"}, got)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
}

func TestFetchErrorIsNotCachedAsData(t *testing.T) {
	c := New()
	key := NewKey("inventory", "products", 7)
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), c, key, func(context.Context) ([]string, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	state := c.State(key)
	assert.False(t, state.HasData)
	assert.ErrorIs(t, state.Err, boom)

	_, ok := Peek[[]string](c, key)
	assert.False(t, ok)
}

func TestInvalidateStoreRefetchesOnlyThatStore(t *testing.T) {
	c := New()
	store7 := NewKey("inventory", "products", 7)
	summary7 := NewKey("inventory", "summary", 7)
	store9 := NewKey("inventory", "products", 9)

	var version int32
	load := func(context.Context) ([]string, error) {
		if atomic.LoadInt32(&version) == 0 {
			return []string{"v0"}, nil
		}
		return []string{"v1"}, nil
	}

	for _, key := range []Key{store7, summary7, store9} {
		_, err := Fetch(context.Background(), c, key, load)
		require.NoError(t, err)
	}

	atomic.StoreInt32(&version, 1)
	assert.Equal(t, 2, c.InvalidateStore(7))
	c.Wait()

	got7, _ := Peek[[]string](c, store7)
	gotSummary, _ := Peek[[]string](c, summary7)
	got9, _ := Peek[[]string](c, store9)
	assert.Equal(t, []string{"v1"}, got7)
	assert.Equal(t, []string{"v1"}, gotSummary)
	assert.Equal(t, []string{"v0"}, got9)
	assert.False(t, c.State(store7).Stale)
	assert.False(t, c.State(store9).Stale)
}

func TestFetchStartedBeforeLocalWriteDoesNotClobberIt(t *testing.T) {
	c := New(WithStaleTime(0))
	key := NewKey("inventory", "products", 7)
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, _ = Fetch(context.Background(), c, key, func(context.Context) ([]string, error) {
			<-release
			return []string{"old"}, nil
		})
	}()
	time.Sleep(50 * time.Millisecond)

	c.Set(key, []string{"optimistic"})
	close(release)
	<-done

	got, ok := Peek[[]string](c, key)
	require.True(t, ok)
	assert.Equal(t, []string{"optimistic"}, got)
}

func TestRefetchAfterLocalWriteWins(t *testing.T) {
	c := New()
	key := NewKey("inventory", "products", 7)
	_, err := Fetch(context.Background(), c, key, func(context.Context) ([]string, error) {
		return []string{"server"}, nil
	})
	require.NoError(t, err)

	assert.True(t, Update(c, key, func(old []string) []string {
		return append(append([]string(nil), old...), "optimistic")
	}))
	got, _ := Peek[[]string](c, key)
	assert.Equal(t, []string{"server", "optimistic"}, got)

	c.InvalidateStore(7)
	c.Wait()

	got, _ = Peek[[]string](c, key)
	assert.Equal(t, []string{"server"}, got)
}

func TestUpdateIgnoresMissingEntries(t *testing.T) {
	c := New()
	key := NewKey("inventory", "products", 7)
	assert.False(t, Update(c, key, func(old []string) []string { return old }))
	_, ok := c.Peek(key)
	assert.False(t, ok)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	a := NewKey("inventory", "products", 7).WithID(1)
	b := NewKey("inventory", "products", 7).WithID(2)
	c.Set(a, "a")
	c.Set(b, "b")

	c.Remove(a)
	_, ok := c.Peek(a)
	assert.False(t, ok)
	_, ok = c.Peek(b)
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Peek(b)
	assert.False(t, ok)
}

func TestRemoveDiscardsRefetchInFlight(t *testing.T) {
	ctx := context.Background()
	c := New()
	key := NewKey("inventory", "products", 7).WithID(4)
	gate := make(chan struct{})
	var calls int32
	_, err := Fetch(ctx, c, key, func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) > 1 {
			<-gate
			return "Zobo 2", nil
		}
		return "Zobo", nil
	})
	require.NoError(t, err)

	c.InvalidateStore(7)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	c.Remove(key)
	close(gate)
	c.Wait()

	_, ok := c.Peek(key)
	assert.False(t, ok)
	assert.False(t, c.State(key).HasData)
	assert.Zero(t, c.InvalidateStore(7))

	got, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return "Zobo 3", nil })
	require.NoError(t, err)
	assert.Equal(t, "Zobo 3", got)
	_, ok = c.Peek(key)
	assert.True(t, ok)
}

func TestRemoveDiscardsLoadOfEarlierGeneration(t *testing.T) {
	c := New()
	key := NewKey("inventory", "products", 7).WithID(4)
	c.Set(key, "Zobo")
	c.Remove(key)

	_, err := c.load(context.Background(), key, 0, func(context.Context) (any, error) { return "Zobo 2", nil })
	require.NoError(t, err)
	_, ok := c.Peek(key)
	assert.False(t, ok)
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	c := New()
	key := NewKey("inventory", "products", 7)
	release := make(chan struct{})
	var calls int32
	fn := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-release:
			return []string{"rice"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, key, fn)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		data []string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := Fetch(context.Background(), c, key, fn)
		second <- result{data, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, []string{"rice"}, res.data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
