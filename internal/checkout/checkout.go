// Package checkout submits orders: validation, a stock re-check against the
// last fetched products, one order request, then best-effort stock
// decrements.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"github.com/webtray/webtray/internal/cart"
	"github.com/webtray/webtray/internal/catalog"
	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/notify"
	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.checkout")

// OrderCreator issues the order request.
type OrderCreator interface {
	Create(ctx context.Context, input models.OrderInput) (models.Order, error)
}

// StockKeeper knows last fetched stock and can write new quantities.
type StockKeeper interface {
	LoadLookup(ctx context.Context, storeID int64) (map[int64]models.Product, error)
	AdjustStock(ctx context.Context, id int64, quantity int) (models.Product, error)
}

// Invalidator refreshes everything cached for a store.
type Invalidator interface {
	InvalidateStore(storeID int64) int
}

// Receipt describes a placed order. Failed lists products whose stock
// decrement did not go through; the order stands regardless.
type Receipt struct {
	Order    models.Order
	Adjusted int
	Failed   []int64
}

type Placer struct {
	orders      OrderCreator
	stock       StockKeeper
	scope       types.StoreScope
	cache       Invalidator
	notifier    types.Notifier
	validate    *validator.Validate
	parallelism int

	submitting atomic.Bool
}

func NewPlacer(orders OrderCreator, stock StockKeeper, scope types.StoreScope, cache Invalidator, notifier types.Notifier) *Placer {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Placer{
		orders:      orders,
		stock:       stock,
		scope:       scope,
		cache:       cache,
		notifier:    notifier,
		validate:    validator.New(),
		parallelism: 8,
	}
}

// ForCatalog wires a Placer to the catalog's orders and products.
func ForCatalog(cat *catalog.Catalog, notifier types.Notifier) *Placer {
	return NewPlacer(cat.Orders, cat.Products, cat, cat.Cache(), notifier)
}

// Busy reports whether a submission is outstanding.
func (p *Placer) Busy() bool {
	return p.submitting.Load()
}

// Place runs the submission steps in order and stops at the first failure.
// Validation and stock failures never reach the network.
func (p *Placer) Place(ctx context.Context, draft Draft) (Receipt, error) {
	if !p.submitting.CompareAndSwap(false, true) {
		return Receipt{}, ErrSubmitInProgress
	}
	defer p.submitting.Store(false)

	storeID, ok := p.scope.ActiveStoreID()
	if !ok {
		p.notifier.Error(catalog.NoStoreMessage)
		return Receipt{}, catalog.ErrNoActiveStore
	}

	if err := draft.validate(p.validate); err != nil {
		p.notifier.Error(err.Error())
		return Receipt{}, err
	}

	lines := draft.merged()
	stock, err := p.checkStock(ctx, storeID, lines)
	if err != nil {
		var short *StockError
		if errors.As(err, &short) {
			p.notifier.Error(short.Error())
		}
		return Receipt{}, err
	}

	order, err := p.orders.Create(ctx, draft.input(lines))
	if err != nil {
		return Receipt{}, err
	}
	logger.Infof("placed order %d (%s) in store %d", order.ID, order.Reference, storeID)

	receipt := Receipt{Order: order}
	receipt.Adjusted, receipt.Failed = p.decrement(ctx, lines, stock)
	p.cache.InvalidateStore(storeID)
	return receipt, nil
}

// checkStock compares every line with the last fetched product quantities.
func (p *Placer) checkStock(ctx context.Context, storeID int64, lines []Line) (map[int64]models.Product, error) {
	stock, err := p.stock.LoadLookup(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	for _, line := range lines {
		product, ok := stock[line.ProductID]
		if !ok {
			return nil, &StockError{ProductID: line.ProductID, ProductName: fmt.Sprintf("Product %d", line.ProductID), Requested: line.Quantity}
		}
		if line.Quantity > product.Quantity {
			return nil, &StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Quantity,
			}
		}
	}
	return stock, nil
}

// decrement issues one stock update per line and waits for all of them.
// Failures are logged only.
func (p *Placer) decrement(ctx context.Context, lines []Line, stock map[int64]models.Product) (int, []int64) {
	var (
		mu     sync.Mutex
		errs   error
		failed []int64
	)
	workers := pool.New().WithMaxGoroutines(p.parallelism)
	for _, line := range lines {
		line := line
		remaining := stock[line.ProductID].Quantity - line.Quantity
		workers.Go(func() {
			if _, err := p.stock.AdjustStock(ctx, line.ProductID, remaining); err != nil {
				mu.Lock()
				defer mu.Unlock()
				errs = multierr.Append(errs, fmt.Errorf("product %d: %w", line.ProductID, err))
				failed = append(failed, line.ProductID)
			}
		})
	}
	workers.Wait()

	if errs != nil {
		logger.Warningf("%d of %d stock updates failed after order: %v", len(failed), len(lines), errs)
	}
	return len(lines) - len(failed), failed
}

// Checkout places the cart as an order and clears the cart once the order
// request succeeds.
func (p *Placer) Checkout(ctx context.Context, c *cart.Cart, customer models.CustomerDetails, notes string) (Receipt, error) {
	if storeID, ok := p.scope.ActiveStoreID(); ok && storeID != c.StoreID() {
		err := errors.NewNotValid(nil, fmt.Sprintf("cart belongs to store %d, not the active store %d", c.StoreID(), storeID))
		p.notifier.Error(err.Error())
		return Receipt{}, err
	}
	receipt, err := p.Place(ctx, FromCart(c, customer, notes))
	if err != nil {
		return Receipt{}, err
	}
	if err := c.Clear(ctx); err != nil {
		logger.Warningf("order %d placed but the cart could not be cleared: %v", receipt.Order.ID, err)
	}
	return receipt, nil
}
