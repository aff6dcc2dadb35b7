package cmd

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/models"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the inventory, order and customer dashboards",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}

		var (
			inventory models.InventorySummary
			orders    models.OrderSummary
			customers models.CustomerSummary
			errs      [3]error
			wg        conc.WaitGroup
		)
		wg.Go(func() {
			r, err := a.catalog.Summaries.Inventory(ctx)
			inventory, errs[0] = r.Data, err
		})
		wg.Go(func() {
			r, err := a.catalog.Summaries.Orders(ctx)
			orders, errs[1] = r.Data, err
		})
		wg.Go(func() {
			r, err := a.catalog.Summaries.Customers(ctx)
			customers, errs[2] = r.Data, err
		})
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		currency := a.storeCurrency(ctx, storeID)
		fmt.Println("📦 Inventory")
		table := newTable("PRODUCTS", "CATEGORIES", "UNITS", "STOCK VALUE", "LOW", "OUT")
		table.AddRow(inventory.TotalProducts, inventory.TotalCategories, inventory.TotalUnits,
			formatMoney(inventory.StockValue, currency), inventory.LowStock, inventory.OutOfStock)
		printTable(table)

		fmt.Println("\n🧾 Orders")
		table = newTable("TOTAL", "PENDING", "SHIPPED", "COMPLETED", "CANCELLED", "REVENUE")
		table.AddRow(orders.TotalOrders, orders.PendingOrders, orders.ShippedOrders,
			orders.CompletedOrders, orders.CancelledOrders, formatMoney(orders.Revenue, currency))
		printTable(table)

		fmt.Println("\n👥 Customers")
		table = newTable("TOTAL", "REPEAT", "AVG ORDER", "TOP SPENDER")
		top := "-"
		if customers.TopCustomerID > 0 {
			top = fmt.Sprintf("#%d (%s)", customers.TopCustomerID, formatMoney(customers.TopCustomerSpent, currency))
		}
		table.AddRow(customers.TotalCustomers, customers.RepeatCustomers, formatMoney(customers.AverageOrderValue, currency), top)
		printTable(table)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
