package models

import "github.com/shopspring/decimal"

// Customer aggregates are computed by the backend.
type Customer struct {
	ID          int64           `json:"id" db:"id"`
	StoreID     int64           `json:"storeId" db:"store_id"`
	Name        string          `json:"name" db:"name"`
	Email       string          `json:"email" db:"email"`
	Phone       string          `json:"phone" db:"phone"`
	Address     string          `json:"address" db:"address"`
	TotalOrders int             `json:"totalOrders" db:"total_orders"`
	TotalSpent  decimal.Decimal `json:"totalSpent" db:"total_spent"`
}

type CustomerInput struct {
	StoreID int64  `json:"storeId" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (in CustomerInput) WithStore(storeID int64) CustomerInput {
	in.StoreID = storeID
	return in
}

type CustomerPatch struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (p CustomerPatch) Apply(customer Customer) Customer {
	if p.Name != nil {
		customer.Name = *p.Name
	}
	if p.Email != nil {
		customer.Email = *p.Email
	}
	if p.Phone != nil {
		customer.Phone = *p.Phone
	}
	if p.Address != nil {
		customer.Address = *p.Address
	}
	return customer
}

// InventorySummary feeds the inventory dashboard.
type InventorySummary struct {
	TotalProducts   int             `json:"totalProducts"`
	TotalCategories int             `json:"totalCategories"`
	TotalUnits      int             `json:"totalUnits"`
	StockValue      decimal.Decimal `json:"stockValue"`
	LowStock        int             `json:"lowStockCount"`
	OutOfStock      int             `json:"outOfStockCount"`
}

type OrderSummary struct {
	TotalOrders     int             `json:"totalOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	ShippedOrders   int             `json:"shippedOrders"`
	CompletedOrders int             `json:"completedOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

type CustomerSummary struct {
	TotalCustomers    int             `json:"totalCustomers"`
	RepeatCustomers   int             `json:"repeatCustomers"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TopCustomerID     int64           `json:"topCustomerId"`
	TopCustomerSpent  decimal.Decimal `json:"topCustomerSpent"`
}

// LowStockThreshold is the quantity at or below which a product counts as low stock.
const LowStockThreshold = 5
