package checkout

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"

	"github.com/webtray/webtray/internal/cart"
	"github.com/webtray/webtray/internal/models"
)

type Line struct {
	ProductID int64
	Quantity  int
}

// Draft is an order before submission.
type Draft struct {
	Customer models.CustomerDetails
	Lines    []Line
	Notes    string
}

// FromCart turns the cart lines into a draft for customer.
func FromCart(c *cart.Cart, customer models.CustomerDetails, notes string) Draft {
	draft := Draft{Customer: customer, Notes: notes}
	for _, item := range c.Items() {
		draft.Lines = append(draft.Lines, Line{ProductID: item.ID, Quantity: item.CartQuantity})
	}
	return draft
}

var fieldLabels = map[string]string{
	"Name":    "Name",
	"Email":   "Email",
	"Phone":   "Phone number",
	"Address": "Delivery address",
}

// validate checks the customer first, then the lines, and stops at the first
// problem.
func (d Draft) validate(v *validator.Validate) error {
	if err := v.Struct(d.Customer); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) || len(invalid) == 0 {
			return fmt.Errorf("failed to validate customer: %w", err)
		}
		return customerError(invalid[0])
	}

	if len(d.Lines) == 0 {
		return &ValidationError{Field: "items", Message: "Add at least one item to the order"}
	}
	for _, line := range d.Lines {
		if line.ProductID <= 0 {
			return &ValidationError{Field: "items", Message: "Every item needs a product"}
		}
		if line.Quantity < 1 {
			return &ValidationError{Field: "items", Message: "Item quantities must be at least 1"}
		}
	}
	return nil
}

func customerError(fe validator.FieldError) *ValidationError {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	msg := label + " is required"
	switch fe.Tag() {
	case "email":
		msg = "Enter a valid email address"
	case "min":
		msg = label + " is too short"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

// merged sums quantities of lines for the same product, keeping first-seen
// order.
func (d Draft) merged() []Line {
	var out []Line
	index := make(map[int64]int, len(d.Lines))
	for _, line := range d.Lines {
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out
}

func (d Draft) input(lines []Line) models.OrderInput {
	in := models.OrderInput{Customer: d.Customer, Notes: d.Notes}
	for _, line := range lines {
		in.Items = append(in.Items, models.OrderLineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return in
}
