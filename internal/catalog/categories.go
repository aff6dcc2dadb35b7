package catalog

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/models"
	"github.com/webtray/webtray/internal/query"
)

// CategoryInUseError is returned when deleting a category that still has
// products. No request is made.
type CategoryInUseError struct {
	CategoryID int64
	Products   int
}

func (e *CategoryInUseError) Error() string {
	noun := "products"
	if e.Products == 1 {
		noun = "product"
	}
	return fmt.Sprintf("Cannot delete this category because it has %d %s. Move or delete them first.", e.Products, noun)
}

func (e *CategoryInUseError) Unwrap() error {
	return errors.NotValid
}

type Categories struct {
	*Resource[models.Category, models.CategoryInput, models.CategoryPatch]
	products *Products
}

func newCategories(c *Catalog, products *Products) *Categories {
	return &Categories{
		Resource: newResource[models.Category, models.CategoryInput, models.CategoryPatch](c, resourceInfo[models.Category]{
			noun:     "Category",
			path:     "/categories",
			domain:   "inventory",
			resource: "categories",
			id:       func(category models.Category) int64 { return category.ID },
		}),
		products: products,
	}
}

// Delete refuses locally when any known product belongs to the category. The
// product list is loaded first if it has never been fetched.
func (c *Categories) Delete(ctx context.Context, id int64) error {
	storeID, err := c.cat.writeScope()
	if err != nil {
		return err
	}

	count, err := c.productCount(ctx, storeID, id)
	if err != nil {
		return c.cat.fail(err)
	}
	if count > 0 {
		inUse := &CategoryInUseError{CategoryID: id, Products: count}
		c.cat.notifier.Error(inUse.Error())
		return inUse
	}

	defer c.begin()()
	return c.delete(ctx, storeID, id)
}

func (c *Categories) productCount(ctx context.Context, storeID, categoryID int64) (int, error) {
	products, ok := query.Peek[[]models.Product](c.cat.cache, c.products.ListKey(storeID))
	if !ok {
		var err error
		if products, err = c.products.list(ctx, storeID); err != nil {
			return 0, err
		}
	}
	count := 0
	for _, p := range products {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}
