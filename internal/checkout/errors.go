package checkout

import (
	"fmt"

	"github.com/juju/errors"
)

// ErrSubmitInProgress rejects a submission while another is outstanding.
const ErrSubmitInProgress = errors.ConstError("an order is already being submitted")

// ValidationError reports the first invalid field of a draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return errors.NotValid
}

// StockError is a line asking for more than the last known stock.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("%s is out of stock.", e.ProductName)
	}
	return fmt.Sprintf("%s: Only %d units available.", e.ProductName, e.Available)
}

func (e *StockError) Unwrap() error {
	return errors.QuotaLimitExceeded
}
