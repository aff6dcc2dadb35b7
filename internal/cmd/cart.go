package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/cart"
	"github.com/webtray/webtray/internal/checkout"
	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/session"
)

var cartStore int64

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Shop a storefront with a persistent cart",
	Long: `The cart belongs to one store: --store, or the active store when
omitted. It is saved between runs and never holds more of a product than
was in stock when the product was added.`,
}

// openCart loads the cart for the selected store together with the
// storefront's current products.
func openCart(ctx context.Context, a *app) (*cart.Cart, []models.Product, string, error) {
	storeID := cartStore
	if storeID == 0 {
		id, err := a.requireStore()
		if err != nil {
			return nil, nil, "", err
		}
		storeID = id
	}
	c := cart.New(a.blobs, storeID)
	if err := c.Load(ctx); err != nil {
		return nil, nil, "", err
	}
	products, err := a.catalog.Storefront.Products(ctx, storeID)
	if err != nil {
		return nil, nil, "", err
	}
	currency := models.CurrencyNGN
	if store, err := a.catalog.Storefront.Store(ctx, storeID); err == nil && store.Data.Currency != "" {
		currency = store.Data.Currency
	}
	return c, products.Data, currency, nil
}

func findProduct(products []models.Product, id int64) (models.Product, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, errors.NotFoundf("product %d", id)
}

func printCart(c *cart.Cart, currency string) {
	if c.Empty() {
		fmt.Println("🛒 Your cart is empty")
		return
	}
	table := newTable("ID", "PRODUCT", "QTY", "MAX", "UNIT", "SUBTOTAL")
	for _, item := range c.Items() {
		table.AddRow(item.ID, item.Name, item.CartQuantity, item.MaxStock, formatMoney(item.Price, currency), formatMoney(item.Subtotal(), currency))
	}
	table.AddRow("", "", c.Count(), "", "Total", formatMoney(c.Total(), currency))
	printTable(table)
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart, dropping lines that are no longer available",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		c, products, currency, err := openCart(ctx, a)
		if err != nil {
			return err
		}
		removed, err := c.Reconcile(ctx, products)
		if err != nil {
			return err
		}
		for _, item := range removed {
			fmt.Printf("⚠️  %s is no longer available and was removed\n", item.Name)
		}
		printCart(c, currency)
		return nil
	}),
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> [quantity]",
	Short: "Add a product to the cart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		qty := 1
		if len(args) == 2 {
			if qty, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
		}
		c, products, currency, err := openCart(ctx, a)
		if err != nil {
			return err
		}
		product, err := findProduct(products, id)
		if err != nil {
			return err
		}
		if err := c.Add(ctx, product, qty); err != nil {
			return err
		}
		fmt.Printf("🛒 Added %d × %s\n", qty, product.Name)
		printCart(c, currency)
		return nil
	}),
}

func stepCommand(use, short string, delta int) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <product-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, _, currency, err := openCart(ctx, a)
			if err != nil {
				return err
			}
			if err := c.UpdateQuantity(ctx, id, delta); err != nil {
				return err
			}
			printCart(c, currency)
			return nil
		}),
	}
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, currency, err := openCart(ctx, a)
		if err != nil {
			return err
		}
		if err := c.Remove(ctx, id); err != nil {
			return err
		}
		printCart(c, currency)
		return nil
	}),
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		c, _, _, err := openCart(ctx, a)
		if err != nil {
			return err
		}
		if err := c.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("🛒 Cart cleared")
		return nil
	}),
}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place the cart as an order",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		c, _, currency, err := openCart(ctx, a)
		if err != nil {
			return err
		}
		// The order goes to the cart's store, which need not be the active one.
		placer := checkout.ForCatalog(a.catalog.WithScope(session.StaticScope(c.StoreID())), a.notifier)
		receipt, err := placer.Checkout(ctx, c, customerInfo, orderNotes)
		if err != nil {
			return err
		}
		printReceipt(receipt, currency)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(
		cartShowCmd,
		cartAddCmd,
		stepCommand("inc", "Add one more of a product", 1),
		stepCommand("dec", "Take one of a product out", -1),
		cartRemoveCmd,
		cartClearCmd,
		cartCheckoutCmd,
	)

	cartCmd.PersistentFlags().Int64Var(&cartStore, "store", 0, "Store id (default: active store)")
	addCustomerFlags(cartCheckoutCmd)
}
