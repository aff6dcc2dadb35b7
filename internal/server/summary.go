package server

import (
	"github.com/shopspring/decimal"

	"github.com/webtray/webtray/internal/models"
)

func (r *Repository) InventorySummary(storeID int64) models.InventorySummary {
	var s models.InventorySummary
	s.StockValue = decimal.Zero
	for _, p := range r.Products(storeID, false) {
		s.TotalProducts++
		s.TotalUnits += p.Quantity
		s.StockValue = s.StockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		switch {
		case p.Quantity == 0:
			s.OutOfStock++
		case p.Quantity <= models.LowStockThreshold:
			s.LowStock++
		}
	}
	s.TotalCategories = len(r.Categories(storeID))
	return s
}

// OrderSummary counts orders by status. Cancelled orders do not add to
// revenue.
func (r *Repository) OrderSummary(storeID int64) models.OrderSummary {
	var s models.OrderSummary
	s.Revenue = decimal.Zero
	for _, o := range r.Orders(storeID) {
		s.TotalOrders++
		switch o.Status {
		case models.OrderStatusPending:
			s.PendingOrders++
		case models.OrderStatusShipped:
			s.ShippedOrders++
		case models.OrderStatusCompleted:
			s.CompletedOrders++
		case models.OrderStatusCancelled:
			s.CancelledOrders++
			continue
		}
		s.Revenue = s.Revenue.Add(o.Total)
	}
	return s
}

func (r *Repository) CustomerSummary(storeID int64) models.CustomerSummary {
	s := models.CustomerSummary{
		AverageOrderValue: decimal.Zero,
		TopCustomerSpent:  decimal.Zero,
	}
	spent := decimal.Zero
	orders := 0
	for _, c := range r.Customers(storeID) {
		s.TotalCustomers++
		if c.TotalOrders > 1 {
			s.RepeatCustomers++
		}
		if c.TotalSpent.GreaterThan(s.TopCustomerSpent) {
			s.TopCustomerID = c.ID
			s.TopCustomerSpent = c.TotalSpent
		}
		spent = spent.Add(c.TotalSpent)
		orders += c.TotalOrders
	}
	if orders > 0 {
		s.AverageOrderValue = spent.Div(decimal.NewFromInt(int64(orders))).Round(2)
	}
	return s
}
