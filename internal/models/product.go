package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product belongs to exactly one store and one category. Price travels as a
// decimal string.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	StoreID     int64           `json:"storeId" db:"store_id"`
	CategoryID  int64           `json:"categoryId" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Images      []string        `json:"images" db:"images"`
	Visible     bool            `json:"isVisible" db:"is_visible"`
	Featured    bool            `json:"isFeatured" db:"is_featured"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

// ProductInput creates a product.
type ProductInput struct {
	StoreID     int64           `json:"storeId" validate:"required"`
	CategoryID  int64           `json:"categoryId" validate:"required"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Images      []string        `json:"images"`
	Visible     bool            `json:"isVisible"`
	Featured    bool            `json:"isFeatured"`
}

func (in ProductInput) WithStore(storeID int64) ProductInput {
	in.StoreID = storeID
	return in
}

// ProductPatch carries the subset of fields an update changes. Nil fields are
// left untouched.
type ProductPatch struct {
	CategoryID  *int64           `json:"categoryId,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Visible     *bool            `json:"isVisible,omitempty"`
	Featured    *bool            `json:"isFeatured,omitempty"`
}

func (p ProductPatch) Apply(product Product) Product {
	if p.CategoryID != nil {
		product.CategoryID = *p.CategoryID
	}
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Quantity != nil {
		product.Quantity = *p.Quantity
	}
	if p.Images != nil {
		product.Images = append([]string(nil), p.Images...)
	}
	if p.Visible != nil {
		product.Visible = *p.Visible
	}
	if p.Featured != nil {
		product.Featured = *p.Featured
	}
	return product
}

// Category groups products within a store.
type Category struct {
	ID          int64  `json:"id" db:"id"`
	StoreID     int64  `json:"storeId" db:"store_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

type CategoryInput struct {
	StoreID     int64  `json:"storeId" validate:"required"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (in CategoryInput) WithStore(storeID int64) CategoryInput {
	in.StoreID = storeID
	return in
}

type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p CategoryPatch) Apply(category Category) Category {
	if p.Name != nil {
		category.Name = *p.Name
	}
	if p.Description != nil {
		category.Description = *p.Description
	}
	return category
}
