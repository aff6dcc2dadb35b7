// Package servertest runs the dev backend on a local httptest server with a
// small fixture, recording every request it serves.
package servertest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/server"
)

// Fixture owns two stores. The first has a "Beverages" category holding
// Zobo (2000, 10 in stock) and Chapman (1500.50, 3 in stock) plus an empty
// "Snacks" category. The second has one category with one product.
const Fixture = `
users:
  - name: Ada
    email: ada@example.com
    password: pw
    stores:
      - name: Pantry
        currency: NGN
        categories:
          - name: Beverages
            products:
              - name: Zobo
                price: "2000"
                quantity: 10
              - name: Chapman
                price: "1500.50"
                quantity: 3
          - name: Snacks
      - name: Crafts
        currency: NGN
        categories:
          - name: Beads
            products:
              - name: Necklace
                price: "25000"
                quantity: 2
`

type Request struct {
	Method string
	Path   string
	Store  string
}

type Backend struct {
	URL  string
	Repo *server.Repository

	Pantry models.Store
	Crafts models.Store

	mu       sync.Mutex
	requests []Request
}

// Start serves Fixture until the test ends.
func Start(t *testing.T) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := server.NewRepository(nil)
	seed, err := server.ParseSeed([]byte(Fixture))
	require.NoError(t, err)
	require.NoError(t, repo.Apply(seed))

	stores := repo.Stores(0)
	require.Len(t, stores, 2)
	b := &Backend{Repo: repo, Pantry: stores[0], Crafts: stores[1]}

	handler := server.NewServer(repo, server.Options{}).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Store: r.URL.Query().Get("storeId")})
		b.mu.Unlock()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	b.URL = srv.URL
	return b
}

func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// Product returns a fixture product by name.
func (b *Backend) Product(t *testing.T, storeID int64, name string) models.Product {
	t.Helper()
	for _, p := range b.Repo.Products(storeID, false) {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no product %q in store %d", name, storeID)
	return models.Product{}
}

func (b *Backend) Category(t *testing.T, storeID int64, name string) models.Category {
	t.Helper()
	for _, c := range b.Repo.Categories(storeID) {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no category %q in store %d", name, storeID)
	return models.Category{}
}
