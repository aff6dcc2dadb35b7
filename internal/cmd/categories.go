package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/webtray/webtray/internal/models"
)

var (
	categoryName        string
	categoryDescription string
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category"},
	Short:   "Manage product categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with their product counts",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		if _, err := a.requireStore(); err != nil {
			return err
		}
		categories, err := a.catalog.Categories.List(ctx)
		if err != nil {
			return err
		}
		if len(categories.Data) == 0 {
			fmt.Println("No categories yet")
			return nil
		}
		products, err := a.catalog.Products.List(ctx)
		if err != nil {
			return err
		}
		counts := make(map[int64]int)
		for _, p := range products.Data {
			counts[p.CategoryID]++
		}
		table := newTable("ID", "NAME", "PRODUCTS", "DESCRIPTION")
		for _, c := range categories.Data {
			table.AddRow(c.ID, c.Name, counts[c.ID], c.Description)
		}
		printTable(table)
		return nil
	}),
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a category",
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		_, err := a.catalog.Categories.Create(ctx, models.CategoryInput{
			Name:        categoryName,
			Description: categoryDescription,
		})
		return err
	}),
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an empty category",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.catalog.Categories.Delete(ctx, id)
	}),
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesAddCmd, categoriesDeleteCmd)

	categoriesAddCmd.Flags().StringVar(&categoryName, "name", "", "Category name")
	categoriesAddCmd.Flags().StringVar(&categoryDescription, "description", "", "Description")
	categoriesAddCmd.MarkFlagRequired("name")
}
