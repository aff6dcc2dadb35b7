package catalog

import (
	"context"

	"github.com/webtray/webtray/internal/models"
)

type Orders struct {
	*Resource[models.Order, models.OrderInput, models.OrderPatch]
}

func newOrders(c *Catalog) *Orders {
	return &Orders{newResource[models.Order, models.OrderInput, models.OrderPatch](c, resourceInfo[models.Order]{
		noun:     "Order",
		path:     "/orders",
		domain:   "orders",
		resource: "list",
		id:       func(o models.Order) int64 { return o.ID },
	})}
}

func (o *Orders) SetStatus(ctx context.Context, id int64, status models.OrderStatus) (models.Order, error) {
	return o.Update(ctx, id, models.OrderPatch{Status: &status})
}

type Customers struct {
	*Resource[models.Customer, models.CustomerInput, models.CustomerPatch]
}

func newCustomers(c *Catalog) *Customers {
	return &Customers{newResource[models.Customer, models.CustomerInput, models.CustomerPatch](c, resourceInfo[models.Customer]{
		noun:     "Customer",
		path:     "/customers",
		domain:   "customers",
		resource: "list",
		id:       func(customer models.Customer) int64 { return customer.ID },
	})}
}
