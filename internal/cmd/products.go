package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/models"
)

var (
	productName        string
	productDescription string
	productPrice       string
	productQuantity    int
	productCategory    int64
	productVisible     bool
	productFeatured    bool
)

var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"product"},
	Short:   "Manage the active store's inventory",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}
		result, err := a.catalog.Products.List(ctx)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No products yet")
			return nil
		}
		currency := a.storeCurrency(ctx, storeID)
		table := newTable("ID", "NAME", "PRICE", "STOCK", "CATEGORY", "VISIBLE", "FEATURED")
		for _, p := range result.Data {
			stock := fmt.Sprint(p.Quantity)
			if p.Quantity == 0 {
				stock = "out"
			} else if p.Quantity <= models.LowStockThreshold {
				stock += " (low)"
			}
			table.AddRow(p.ID, p.Name, formatMoney(p.Price, currency), stock, p.CategoryID, yesNo(p.Visible), yesNo(p.Featured))
		}
		printTable(table)
		return nil
	}),
}

var productsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		storeID, err := a.requireStore()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := a.catalog.Products.Get(ctx, id)
		if err != nil {
			return err
		}
		p := result.Data
		table := newTable("FIELD", "VALUE")
		table.AddRow("ID", p.ID)
		table.AddRow("Name", p.Name)
		table.AddRow("Description", p.Description)
		table.AddRow("Price", formatMoney(p.Price, a.storeCurrency(ctx, storeID)))
		table.AddRow("Stock", p.Quantity)
		table.AddRow("Category", p.CategoryID)
		table.AddRow("Visible", yesNo(p.Visible))
		table.AddRow("Featured", yesNo(p.Featured))
		table.AddRow("Updated", formatTime(p.UpdatedAt))
		printTable(table)
		return nil
	}),
}

var productsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		price, err := decimal.NewFromString(productPrice)
		if err != nil {
			return fmt.Errorf("invalid price %q", productPrice)
		}
		_, err = a.catalog.Products.Create(ctx, models.ProductInput{
			CategoryID:  productCategory,
			Name:        productName,
			Description: productDescription,
			Price:       price,
			Quantity:    productQuantity,
			Visible:     productVisible,
			Featured:    productFeatured,
		})
		return err
	}),
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the fields given as flags",
	Args:  cobra.ExactArgs(1),
}

func updateProduct(ctx context.Context, a *app, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	patch, err := productPatchFromFlags(productsUpdateCmd.Flags())
	if err != nil {
		return err
	}
	_, err = a.catalog.Products.Update(ctx, id, patch)
	return err
}

var productsStockCmd = &cobra.Command{
	Use:   "stock <id> <quantity>",
	Short: "Set a product's stock level",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var qty int
		if _, err := fmt.Sscan(args[1], &qty); err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		p, err := a.catalog.Products.AdjustStock(ctx, id, qty)
		if err != nil {
			return err
		}
		fmt.Printf("📦 %s now has %d in stock\n", p.Name, p.Quantity)
		return nil
	}),
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.catalog.Products.Delete(ctx, id)
	}),
}

// flagSet is the part of pflag.FlagSet the patch builders read.
type flagSet interface {
	Changed(name string) bool
}

// productPatchFromFlags only carries the flags the user actually set.
func productPatchFromFlags(flags flagSet) (models.ProductPatch, error) {
	var patch models.ProductPatch
	changed := false
	for _, name := range []string{"name", "description", "price", "quantity", "category", "visible", "featured"} {
		changed = changed || flags.Changed(name)
	}
	if !changed {
		return patch, fmt.Errorf("nothing to update: pass at least one field flag")
	}
	if flags.Changed("name") {
		patch.Name = &productName
	}
	if flags.Changed("description") {
		patch.Description = &productDescription
	}
	if flags.Changed("price") {
		price, err := decimal.NewFromString(productPrice)
		if err != nil {
			return patch, fmt.Errorf("invalid price %q", productPrice)
		}
		patch.Price = &price
	}
	if flags.Changed("quantity") {
		patch.Quantity = &productQuantity
	}
	if flags.Changed("category") {
		patch.CategoryID = &productCategory
	}
	if flags.Changed("visible") {
		patch.Visible = &productVisible
	}
	if flags.Changed("featured") {
		patch.Featured = &productFeatured
	}
	return patch, nil
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd, productsGetCmd, productsAddCmd, productsUpdateCmd, productsStockCmd, productsDeleteCmd)

	for _, c := range []*cobra.Command{productsAddCmd, productsUpdateCmd} {
		c.Flags().StringVar(&productName, "name", "", "Product name")
		c.Flags().StringVar(&productDescription, "description", "", "Description")
		c.Flags().StringVar(&productPrice, "price", "0", "Unit price, e.g. 2500.00")
		c.Flags().IntVar(&productQuantity, "quantity", 0, "Units in stock")
		c.Flags().Int64Var(&productCategory, "category", 0, "Category id")
		c.Flags().BoolVar(&productVisible, "visible", true, "Show on the storefront")
		c.Flags().BoolVar(&productFeatured, "featured", false, "Feature on the storefront")
	}
	productsAddCmd.MarkFlagRequired("name")
	productsAddCmd.MarkFlagRequired("category")
	productsUpdateCmd.RunE = withApp(updateProduct)
}
