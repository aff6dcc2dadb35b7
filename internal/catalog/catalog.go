// Package catalog is the store-scoped data access layer. Every read and write
// goes through the query cache and is keyed by the active store.
package catalog

import (
	"context"
	"net/url"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/webtray/webtray/internal/api"
	"github.com/webtray/webtray/internal/notify"
	"github.com/webtray/webtray/internal/query"
	"github.com/webtray/webtray/internal/types"
)

var logger = loggo.GetLogger("webtray.catalog")

// NoStoreMessage is shown when a write is attempted without an active store.
const NoStoreMessage = "Please select a store first"

// ErrNoActiveStore rejects writes issued without an active store.
var ErrNoActiveStore = errors.NewNotValid(nil, "no active store")

// Backend is the subset of api.Client the catalog needs.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, query url.Values, body, out any) error
	Put(ctx context.Context, path string, query url.Values, body, out any) error
	Delete(ctx context.Context, path string, query url.Values) error
}

var (
	_ Backend          = (*api.Client)(nil)
	_ types.StoreScope = (*Catalog)(nil)
)

type Catalog struct {
	client   Backend
	cache    *query.Cache
	scope    types.StoreScope
	notifier types.Notifier

	Products   *Products
	Categories *Categories
	Orders     *Orders
	Customers  *Customers
	Stores     *Stores
	Summaries  *Summaries
	Storefront *Storefront
}

func New(client Backend, cache *query.Cache, scope types.StoreScope, notifier types.Notifier) *Catalog {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	c := &Catalog{
		client:   client,
		cache:    cache,
		scope:    scope,
		notifier: notifier,
	}

	c.Products = newProducts(c)
	c.Categories = newCategories(c, c.Products)
	c.Orders = newOrders(c)
	c.Customers = newCustomers(c)
	c.Stores = &Stores{cat: c}
	c.Summaries = &Summaries{cat: c}
	c.Storefront = &Storefront{cat: c}
	return c
}

// WithScope returns a catalog working in another store. It shares the
// client, cache and notifier with c.
func (c *Catalog) WithScope(scope types.StoreScope) *Catalog {
	return New(c.client, c.cache, scope, c.notifier)
}

// Cache returns the query cache behind every resource.
func (c *Catalog) Cache() *query.Cache {
	return c.cache
}

// ActiveStoreID returns the store every scoped operation uses.
func (c *Catalog) ActiveStoreID() (int64, bool) {
	return c.scope.ActiveStoreID()
}

// Busy reports whether any write is outstanding.
func (c *Catalog) Busy() bool {
	return c.Products.Busy() || c.Categories.Busy() || c.Orders.Busy() ||
		c.Customers.Busy() || c.Stores.Busy()
}

// writeScope returns the active store for a write, telling the user when
// there is none.
func (c *Catalog) writeScope() (int64, error) {
	storeID, ok := c.scope.ActiveStoreID()
	if !ok {
		c.notifier.Error(NoStoreMessage)
		return 0, ErrNoActiveStore
	}
	return storeID, nil
}

// fail reports err to the user and hands it back.
func (c *Catalog) fail(err error) error {
	c.notifier.Error(api.Message(err))
	logger.Debugf("%v", err)
	return err
}
