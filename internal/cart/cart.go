// Package cart holds a shopper's cart for one store. Quantities are bounded by
// the stock known when the product was first added, and the whole cart is
// written to durable storage after every change.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/shopspring/decimal"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.cart")

// ErrOutOfStock is returned when adding a product with no stock.
const ErrOutOfStock = errors.ConstError("out of stock")

// CapacityError is returned when a change would take a line past its stock
// ceiling. Nothing is changed.
type CapacityError struct {
	ProductName string
	Available   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Cannot add more %s, only %d available", e.ProductName, e.Available)
}

func (e *CapacityError) Unwrap() error {
	return errors.QuotaLimitExceeded
}

// Item is a product snapshot plus how many the shopper wants. MaxStock is the
// stock when the product was added and only ever moves down.
type Item struct {
	models.Product
	CartQuantity int `json:"cartQuantity"`
	MaxStock     int `json:"maxStock"`
}

// Subtotal is the line price times the quantity in the cart.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.CartQuantity)))
}

// StorageKey is the blob key of the cart for storeID.
func StorageKey(storeID int64) string {
	return "webtray-cart:" + strconv.FormatInt(storeID, 10)
}

// Cart is one shopper's cart for one store. Every change is persisted before
// it becomes visible.
type Cart struct {
	mu      sync.Mutex
	store   types.BlobStore
	key     string
	storeID int64
	items   []Item
}

// New creates an empty cart for storeID backed by store. Call Load to
// restore a saved one.
func New(store types.BlobStore, storeID int64) *Cart {
	return &Cart{store: store, key: StorageKey(storeID), storeID: storeID}
}

// StoreID returns the store the cart belongs to.
func (c *Cart) StoreID() int64 {
	return c.storeID
}

// Load replaces the in-memory cart with the persisted one. A missing or
// unreadable blob gives an empty cart.
func (c *Cart) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.store.Load(ctx, c.key)
	if errors.Is(err, errors.NotFound) {
		c.items = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Warningf("discarding unreadable cart %s: %v", c.key, err)
		c.items = nil
		return nil
	}
	c.items = sanitize(items)
	return nil
}

// sanitize drops entries that break the cart invariants.
func sanitize(items []Item) []Item {
	out := make([]Item, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.ID == 0 || seen[item.ID] || item.MaxStock < 1 || item.CartQuantity < 1 {
			logger.Warningf("dropping invalid cart entry for product %d", item.ID)
			continue
		}
		seen[item.ID] = true
		item.CartQuantity = min(item.CartQuantity, item.MaxStock)
		out = append(out, item)
	}
	return out
}

// commitLocked persists items and only then makes them the cart's contents.
func (c *Cart) commitLocked(ctx context.Context, items []Item) error {
	blob := items
	if blob == nil {
		blob = []Item{}
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := c.store.Save(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	c.items = items
	return nil
}

func (c *Cart) indexLocked(productID int64) int {
	return slices.IndexFunc(c.items, func(item Item) bool { return item.ID == productID })
}

// Add puts quantity units of product in the cart. A new line takes the
// product's current stock as its ceiling; an existing line keeps its own.
func (c *Cart) Add(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		return errors.NotValidf("quantity %d", quantity)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(product.ID); i >= 0 {
		item := c.items[i]
		if item.CartQuantity+quantity > item.MaxStock {
			return &CapacityError{ProductName: item.Name, Available: item.MaxStock}
		}
		next := slices.Clone(c.items)
		next[i].CartQuantity += quantity
		return c.commitLocked(ctx, next)
	}

	if product.Quantity <= 0 {
		return fmt.Errorf("%s is %w", product.Name, ErrOutOfStock)
	}
	if quantity > product.Quantity {
		return &CapacityError{ProductName: product.Name, Available: product.Quantity}
	}
	next := append(slices.Clone(c.items), Item{Product: product, CartQuantity: quantity, MaxStock: product.Quantity})
	return c.commitLocked(ctx, next)
}

// UpdateQuantity moves a line by delta. Going below one is ignored; removing
// a line is Remove's job.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(productID)
	if i < 0 {
		return errors.NotFoundf("product %d in cart", productID)
	}
	item := c.items[i]
	next := item.CartQuantity + delta
	if next < 1 {
		return nil
	}
	if next > item.MaxStock {
		return &CapacityError{ProductName: item.Name, Available: item.MaxStock}
	}
	items := slices.Clone(c.items)
	items[i].CartQuantity = next
	return c.commitLocked(ctx, items)
}

// Remove drops the line for productID, if any.
func (c *Cart) Remove(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := slices.DeleteFunc(slices.Clone(c.items), func(item Item) bool { return item.ID == productID })
	return c.commitLocked(ctx, next)
}

// Clear empties the cart, e.g. after an order is placed.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commitLocked(ctx, nil)
}

// Reconcile checks the cart against the current catalog. Lines whose product
// is gone or sold out are removed and returned; the rest get a fresh
// snapshot and a ceiling no higher than current stock.
func (c *Cart) Reconcile(ctx context.Context, products []models.Product) ([]Item, error) {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []Item
	kept := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		current, ok := byID[item.ID]
		if !ok || current.Quantity < 1 {
			removed = append(removed, item)
			continue
		}
		item.Product = current
		item.MaxStock = min(item.MaxStock, current.Quantity)
		item.CartQuantity = min(item.CartQuantity, item.MaxStock)
		kept = append(kept, item)
	}
	if err := c.commitLocked(ctx, kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// Items returns a copy of the cart lines in the order they were added.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cart) Item(productID int64) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(productID); i >= 0 {
		return c.items[i], true
	}
	return Item{}, false
}

func (c *Cart) Has(productID int64) bool {
	_, ok := c.Item(productID)
	return ok
}

// Total is computed on every call.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.CartQuantity
	}
	return count
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}
