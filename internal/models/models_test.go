package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductPatchApplyLeavesUnsetFields(t *testing.T) {
	product := Product{
		ID:       4,
		Name:     "Zobo",
		Price:    decimal.NewFromInt(2000),
		Quantity: 10,
		Images:   []string{"a.jpg"},
		Visible:  true,
	}
	qty := 3
	hidden := false
	got := ProductPatch{Quantity: &qty, Visible: &hidden}.Apply(product)

	assert.Equal(t, 3, got.Quantity)
	assert.False(t, got.Visible)
	assert.Equal(t, "Zobo", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, 10, product.Quantity, "original must not change")
}

func TestProductPatchCopiesImages(t *testing.T) {
	images := []string{"b.jpg"}
	got := ProductPatch{Images: images}.Apply(Product{})
	images[0] = "changed.jpg"
	assert.Equal(t, []string{"b.jpg"}, got.Images)
}

func TestPriceTravelsAsString(t *testing.T) {
	data, err := json.Marshal(Product{ID: 1, Price: decimal.RequireFromString("1500.50")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":"1500.5"`)

	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":"2500.75"}`), &p))
	assert.Equal(t, "2500.75", p.Price.StringFixed(2))

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":12}`), &p))
	assert.True(t, p.Price.Equal(decimal.NewFromInt(12)))
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, UnitPrice: decimal.RequireFromString("1500.50")}
	assert.Equal(t, "4501.50", item.Subtotal().StringFixed(2))
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusShipped, OrderStatusCancelled, OrderStatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderPatchApply(t *testing.T) {
	shipped := OrderStatusShipped
	got := OrderPatch{Status: &shipped}.Apply(Order{Status: OrderStatusPending, Notes: "leave at gate"})
	assert.Equal(t, OrderStatusShipped, got.Status)
	assert.Equal(t, "leave at gate", got.Notes)
}

func TestInStock(t *testing.T) {
	assert.True(t, Product{Quantity: 1}.InStock())
	assert.False(t, Product{Quantity: 0}.InStock())
}
