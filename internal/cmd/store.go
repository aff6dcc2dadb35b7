package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/models"
)

var (
	storeName        string
	storeSlug        string
	storeDescription string
	storeCurrency    string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "List, create and select stores",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your stores",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		stores, err := a.catalog.Stores.List(ctx)
		if err != nil {
			return err
		}
		if len(stores) == 0 {
			fmt.Println("No stores yet. Create one with 'webtray store create --name ...'")
			return nil
		}
		active, _ := a.session.ActiveStoreID()
		table := newTable("", "ID", "NAME", "SLUG", "CURRENCY", "CREATED")
		for _, s := range stores {
			marker := ""
			if s.ID == active {
				marker = "*"
			}
			table.AddRow(marker, s.ID, s.Name, s.Slug, s.Currency, formatTime(s.CreatedAt))
		}
		printTable(table)
		return nil
	}),
}

var storeUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a store the active store",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		store, err := a.catalog.Stores.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := a.session.SetActiveStore(ctx, store.ID); err != nil {
			return err
		}
		fmt.Printf("🏪 Active store is now %s (%d)\n", store.Name, store.ID)
		return nil
	}),
}

var storeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a store and make it active",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		store, err := a.catalog.Stores.Create(ctx, models.StoreInput{
			Name:        storeName,
			Slug:        storeSlug,
			Description: storeDescription,
			Currency:    storeCurrency,
		})
		if err != nil {
			return err
		}
		if err := a.session.SetActiveStore(ctx, store.ID); err != nil {
			return err
		}
		fmt.Printf("🏪 %s is live at /%s\n", store.Name, store.Slug)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd, storeUseCmd, storeCreateCmd)

	storeCreateCmd.Flags().StringVar(&storeName, "name", "", "Store name")
	storeCreateCmd.Flags().StringVar(&storeSlug, "slug", "", "URL slug (default: derived from name)")
	storeCreateCmd.Flags().StringVar(&storeDescription, "description", "", "Short description")
	storeCreateCmd.Flags().StringVar(&storeCurrency, "currency", models.CurrencyNGN, "ISO currency code")
	storeCreateCmd.MarkFlagRequired("name")
}
