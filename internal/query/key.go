package query

import (
	"strconv"
	"strings"
)

// Key identifies a cached query: a domain tag ("inventory", "orders",
// "storefront"), a sub-resource tag, the store it is scoped to and any extra
// parameters. StoreID 0 stands for "no store".
type Key struct {
	Domain   string
	Resource string
	StoreID  int64
	Params   []string
}

// NewKey builds a key. A storeID of 0 marks a query with no store scope.
func NewKey(domain, resource string, storeID int64, params ...string) Key {
	return Key{Domain: domain, Resource: resource, StoreID: storeID, Params: params}
}

// With returns a copy of k with extra parameters appended.
func (k Key) With(params ...string) Key {
	out := k
	out.Params = append(append([]string(nil), k.Params...), params...)
	return out
}

// WithID appends a numeric entity id.
func (k Key) WithID(id int64) Key {
	return k.With(strconv.FormatInt(id, 10))
}

func (k Key) String() string {
	store := "undefined"
	if k.StoreID != 0 {
		store = strconv.FormatInt(k.StoreID, 10)
	}
	parts := append([]string{k.Domain, k.Resource, store}, k.Params...)
	return strings.Join(parts, "/")
}

// HasStore reports whether the key is scoped to storeID.
func (k Key) HasStore(storeID int64) bool {
	return storeID != 0 && k.StoreID == storeID
}
