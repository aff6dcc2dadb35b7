package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/webtray/webtray/internal/models"
)

// CategoryInUseError refuses deleting a category that still has products.
type CategoryInUseError struct {
	CategoryID int64
	Products   int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %d still has %d products", e.CategoryID, e.Products)
}

type userRecord struct {
	models.User
	password string
}

// Repository is the dev backend's in-memory state. Every collection is keyed
// by id and ids are unique across collections.
type Repository struct {
	mu     sync.RWMutex
	clock  clock.Clock
	nextID int64

	users      map[int64]userRecord
	stores     map[int64]models.Store
	products   map[int64]models.Product
	categories map[int64]models.Category
	orders     map[int64]models.Order
	customers  map[int64]models.Customer
}

func NewRepository(clk clock.Clock) *Repository {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Repository{
		clock:      clk,
		users:      make(map[int64]userRecord),
		stores:     make(map[int64]models.Store),
		products:   make(map[int64]models.Product),
		categories: make(map[int64]models.Category),
		orders:     make(map[int64]models.Order),
		customers:  make(map[int64]models.Customer),
	}
}

func (r *Repository) newID() int64 {
	r.nextID++
	return r.nextID
}

func sortedValues[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// Users

func (r *Repository) AddUser(name, email, password string) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := models.User{ID: r.newID(), Name: name, Email: strings.ToLower(email)}
	r.users[u.ID] = userRecord{User: u, password: password}
	return u
}

func (r *Repository) Authenticate(email, password string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email && u.password == password {
			return u.User, nil
		}
	}
	return models.User{}, errors.NewUnauthorized(nil, "invalid email or password")
}

func (r *Repository) User(id int64) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, errors.NotFoundf("user %d", id)
	}
	return u.User, nil
}

// Stores

// Stores lists the stores owned by ownerID, or every store when ownerID is 0.
func (r *Repository) Stores(ownerID int64) []models.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.stores, func(s models.Store) bool {
		return ownerID == 0 || s.OwnerID == ownerID
	})
}

func (r *Repository) Store(id int64) (models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storeLocked(id)
}

func (r *Repository) storeLocked(id int64) (models.Store, error) {
	s, ok := r.stores[id]
	if !ok {
		return models.Store{}, errors.NotFoundf("store %d", id)
	}
	return s, nil
}

func slugify(name string) string {
	name = strings.ReplaceAll(strings.ToLower(name), "'", "")
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}

func (r *Repository) CreateStore(ownerID int64, in models.StoreInput) (models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug := in.Slug
	if slug == "" {
		slug = slugify(in.Name)
	}
	for _, s := range r.stores {
		if s.Slug == slug {
			return models.Store{}, errors.AlreadyExistsf("store %q", slug)
		}
	}
	s := models.Store{
		ID:          r.newID(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Currency:    strings.ToUpper(in.Currency),
		Payment:     in.Payment,
		Delivery:    in.Delivery,
		CreatedAt:   r.clock.Now().UTC(),
	}
	r.stores[s.ID] = s
	return s, nil
}

func (r *Repository) UpdateStore(id int64, in models.StoreInput) (models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.storeLocked(id)
	if err != nil {
		return s, err
	}
	s.Name = in.Name
	s.Description = in.Description
	s.Currency = strings.ToUpper(in.Currency)
	s.Payment = in.Payment
	s.Delivery = in.Delivery
	r.stores[id] = s
	return s, nil
}

// Categories

func (r *Repository) Categories(storeID int64) []models.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.categories, func(c models.Category) bool { return c.StoreID == storeID })
}

func (r *Repository) Category(storeID, id int64) (models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categoryLocked(storeID, id)
}

func (r *Repository) categoryLocked(storeID, id int64) (models.Category, error) {
	c, ok := r.categories[id]
	if !ok || c.StoreID != storeID {
		return models.Category{}, errors.NotFoundf("category %d", id)
	}
	return c, nil
}

func (r *Repository) CreateCategory(in models.CategoryInput) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.storeLocked(in.StoreID); err != nil {
		return models.Category{}, err
	}
	c := models.Category{ID: r.newID(), StoreID: in.StoreID, Name: in.Name, Description: in.Description}
	r.categories[c.ID] = c
	return c, nil
}

func (r *Repository) UpdateCategory(storeID, id int64, patch models.CategoryPatch) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.categoryLocked(storeID, id)
	if err != nil {
		return c, err
	}
	c = patch.Apply(c)
	r.categories[id] = c
	return c, nil
}

func (r *Repository) DeleteCategory(storeID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.categoryLocked(storeID, id); err != nil {
		return err
	}
	count := 0
	for _, p := range r.products {
		if p.CategoryID == id {
			count++
		}
	}
	if count > 0 {
		return &CategoryInUseError{CategoryID: id, Products: count}
	}
	delete(r.categories, id)
	return nil
}

// Products

func (r *Repository) Products(storeID int64, visibleOnly bool) []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.products, func(p models.Product) bool {
		return p.StoreID == storeID && (!visibleOnly || p.Visible)
	})
}

func (r *Repository) Product(storeID, id int64) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.productLocked(storeID, id)
}

func (r *Repository) productLocked(storeID, id int64) (models.Product, error) {
	p, ok := r.products[id]
	if !ok || p.StoreID != storeID {
		return models.Product{}, errors.NotFoundf("product %d", id)
	}
	return p, nil
}

func (r *Repository) CreateProduct(in models.ProductInput) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.categoryLocked(in.StoreID, in.CategoryID); err != nil {
		return models.Product{}, errors.NewNotValid(err, "unknown category")
	}
	if in.Price.IsNegative() {
		return models.Product{}, errors.NotValidf("negative price")
	}
	now := r.clock.Now().UTC()
	p := models.Product{
		ID:          r.newID(),
		StoreID:     in.StoreID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Images:      append([]string{}, in.Images...),
		Visible:     in.Visible,
		Featured:    in.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *Repository) UpdateProduct(storeID, id int64, patch models.ProductPatch) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.productLocked(storeID, id)
	if err != nil {
		return p, err
	}
	if patch.CategoryID != nil {
		if _, err := r.categoryLocked(storeID, *patch.CategoryID); err != nil {
			return models.Product{}, errors.NewNotValid(err, "unknown category")
		}
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return models.Product{}, errors.NotValidf("negative quantity")
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		return models.Product{}, errors.NotValidf("negative price")
	}
	p = patch.Apply(p)
	p.UpdatedAt = r.clock.Now().UTC()
	r.products[id] = p
	return p, nil
}

func (r *Repository) DeleteProduct(storeID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.productLocked(storeID, id); err != nil {
		return err
	}
	delete(r.products, id)
	return nil
}

// Orders

func (r *Repository) Orders(storeID int64) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.orders, func(o models.Order) bool { return o.StoreID == storeID })
}

func (r *Repository) Order(storeID, id int64) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orderLocked(storeID, id)
}

func (r *Repository) orderLocked(storeID, id int64) (models.Order, error) {
	o, ok := r.orders[id]
	if !ok || o.StoreID != storeID {
		return models.Order{}, errors.NotFoundf("order %d", id)
	}
	return o, nil
}

// CreateOrder prices every line from the current catalog and records the
// buyer. Stock is checked but not decremented; clients adjust it afterwards.
func (r *Repository) CreateOrder(in models.OrderInput) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.storeLocked(in.StoreID); err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		StoreID:  in.StoreID,
		Customer: in.Customer,
		Status:   models.OrderStatusPending,
		Notes:    in.Notes,
		Total:    decimal.Zero,
	}
	for _, line := range in.Items {
		p, err := r.productLocked(in.StoreID, line.ProductID)
		if err != nil {
			return models.Order{}, errors.NewNotValid(err, fmt.Sprintf("unknown product %d", line.ProductID))
		}
		if line.Quantity > p.Quantity {
			return models.Order{}, errors.NewNotValid(nil, fmt.Sprintf("Only %d units of %s available", p.Quantity, p.Name))
		}
		item := models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			UnitPrice:   p.Price,
		}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.Subtotal())
	}

	order.ID = r.newID()
	order.Reference = "WT-" + strings.ToUpper(uuid.NewString()[:8])
	order.CreatedAt = r.clock.Now().UTC()
	order.CustomerID = r.recordPurchaseLocked(in.StoreID, in.Customer, order.Total)
	r.orders[order.ID] = order
	return order, nil
}

// recordPurchaseLocked finds or creates the customer with the buyer's email and
// bumps their aggregates.
func (r *Repository) recordPurchaseLocked(storeID int64, details models.CustomerDetails, total decimal.Decimal) int64 {
	email := strings.ToLower(details.Email)
	for id, c := range r.customers {
		if c.StoreID == storeID && strings.ToLower(c.Email) == email {
			c.TotalOrders++
			c.TotalSpent = c.TotalSpent.Add(total)
			r.customers[id] = c
			return id
		}
	}
	c := models.Customer{
		ID:          r.newID(),
		StoreID:     storeID,
		Name:        details.Name,
		Email:       details.Email,
		Phone:       details.Phone,
		Address:     details.Address,
		TotalOrders: 1,
		TotalSpent:  total,
	}
	r.customers[c.ID] = c
	return c.ID
}

func (r *Repository) UpdateOrder(storeID, id int64, patch models.OrderPatch) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, err := r.orderLocked(storeID, id)
	if err != nil {
		return o, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Order{}, errors.NotValidf("order status %q", *patch.Status)
	}
	o = patch.Apply(o)
	r.orders[id] = o
	return o, nil
}

func (r *Repository) DeleteOrder(storeID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.orderLocked(storeID, id); err != nil {
		return err
	}
	delete(r.orders, id)
	return nil
}

// Customers

func (r *Repository) Customers(storeID int64) []models.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.customers, func(c models.Customer) bool { return c.StoreID == storeID })
}

func (r *Repository) Customer(storeID, id int64) (models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.customerLocked(storeID, id)
}

func (r *Repository) customerLocked(storeID, id int64) (models.Customer, error) {
	c, ok := r.customers[id]
	if !ok || c.StoreID != storeID {
		return models.Customer{}, errors.NotFoundf("customer %d", id)
	}
	return c, nil
}

func (r *Repository) CreateCustomer(in models.CustomerInput) (models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.storeLocked(in.StoreID); err != nil {
		return models.Customer{}, err
	}
	c := models.Customer{
		ID:         r.newID(),
		StoreID:    in.StoreID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		TotalSpent: decimal.Zero,
	}
	r.customers[c.ID] = c
	return c, nil
}

func (r *Repository) UpdateCustomer(storeID, id int64, patch models.CustomerPatch) (models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.customerLocked(storeID, id)
	if err != nil {
		return c, err
	}
	c = patch.Apply(c)
	r.customers[id] = c
	return c, nil
}

func (r *Repository) DeleteCustomer(storeID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.customerLocked(storeID, id); err != nil {
		return err
	}
	delete(r.customers, id)
	return nil
}
