package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/checkout"
	"github.com/webtray/webtray/internal/models"
)

var (
	orderLines   []string
	orderNotes   string
	customerInfo models.CustomerDetails
)

var ordersCmd = &cobra.Command{
	Use:     "orders",
	Aliases: []string{"order"},
	Short:   "List, place and fulfil orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}
		result, err := a.catalog.Orders.List(ctx)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No orders yet")
			return nil
		}
		currency := a.storeCurrency(ctx, storeID)
		table := newTable("ID", "REFERENCE", "CUSTOMER", "ITEMS", "TOTAL", "STATUS", "PLACED")
		for _, o := range result.Data {
			units := 0
			for _, item := range o.Items {
				units += item.Quantity
			}
			table.AddRow(o.ID, o.Reference, o.Customer.Name, units, formatMoney(o.Total, currency), o.Status, formatTime(o.CreatedAt))
		}
		printTable(table)
		return nil
	}),
}

var ordersPlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place an order for a customer",
	Long: `Place an order on behalf of a customer. Each --product takes
"productID:quantity". Stock is checked against the current inventory before
anything is sent, and decremented once the order exists.`,
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}
		draft := checkout.Draft{Customer: customerInfo, Notes: orderNotes}
		for _, raw := range orderLines {
			id, qty, err := parseLine(raw)
			if err != nil {
				return err
			}
			draft.Lines = append(draft.Lines, checkout.Line{ProductID: id, Quantity: qty})
		}
		receipt, err := a.placer().Place(ctx, draft)
		if err != nil {
			return err
		}
		printReceipt(receipt, a.storeCurrency(ctx, storeID))
		return nil
	}),
}

var ordersStatusCmd = &cobra.Command{
	Use:   "status <id> <pending|shipped|completed|cancelled>",
	Short: "Change an order's status",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status := models.OrderStatus(args[1])
		if !status.Valid() {
			return fmt.Errorf("unknown order status %q", args[1])
		}
		_, err = a.catalog.Orders.SetStatus(ctx, id, status)
		return err
	}),
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "List customers and what they have spent",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}
		result, err := a.catalog.Customers.List(ctx)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No customers yet")
			return nil
		}
		currency := a.storeCurrency(ctx, storeID)
		table := newTable("ID", "NAME", "EMAIL", "PHONE", "ORDERS", "SPENT")
		for _, c := range result.Data {
			table.AddRow(c.ID, c.Name, c.Email, c.Phone, c.TotalOrders, formatMoney(c.TotalSpent, currency))
		}
		printTable(table)
		return nil
	}),
}

func printReceipt(receipt checkout.Receipt, currency string) {
	o := receipt.Order
	fmt.Printf("🧾 Order %s for %s\n", o.Reference, o.Customer.Name)
	table := newTable("PRODUCT", "QTY", "UNIT", "SUBTOTAL")
	for _, item := range o.Items {
		table.AddRow(item.ProductName, item.Quantity, formatMoney(item.UnitPrice, currency), formatMoney(item.Subtotal(), currency))
	}
	table.AddRow("", "", "Total", formatMoney(o.Total, currency))
	printTable(table)
	if len(receipt.Failed) > 0 {
		fmt.Printf("⚠️  Stock could not be updated for products %v, check inventory\n", receipt.Failed)
	}
}

func addCustomerFlags(c *cobra.Command) {
	c.Flags().StringVar(&customerInfo.Name, "name", "", "Customer name")
	c.Flags().StringVar(&customerInfo.Email, "email", "", "Customer email")
	c.Flags().StringVar(&customerInfo.Phone, "phone", "", "Customer phone number")
	c.Flags().StringVar(&customerInfo.Address, "address", "", "Delivery address")
	c.Flags().StringVar(&orderNotes, "notes", "", "Order notes")
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(customersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersPlaceCmd, ordersStatusCmd)

	ordersPlaceCmd.Flags().StringArrayVar(&orderLines, "product", nil, "productID:quantity, repeatable")
	addCustomerFlags(ordersPlaceCmd)
}
