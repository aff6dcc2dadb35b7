package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/shopspring/decimal"

	"github.com/webtray/webtray/internal/models"
)

func newTable(headers ...any) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true
	table.AddRow(headers...)
	return table
}

func printTable(table *uitable.Table) {
	fmt.Fprintln(os.Stdout, table)
}

func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case models.CurrencyNGN, "":
		return "₦"
	case models.CurrencyUSD:
		return "$"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func formatMoney(amount decimal.Decimal, currency string) string {
	f, _ := amount.Round(2).Float64()
	return currencySymbol(currency) + humanize.FormatFloat("#,###.##", f)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseLine reads a "productID:quantity" pair. A bare id means one unit.
func parseLine(s string) (int64, int, error) {
	idPart, qtyPart, found := strings.Cut(s, ":")
	id, err := parseID(idPart)
	if err != nil {
		return 0, 0, err
	}
	if !found {
		return id, 1, nil
	}
	qty, err := strconv.Atoi(qtyPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantity in %q", s)
	}
	return id, qty, nil
}

// storeCurrency looks up the active store's currency, falling back to NGN.
func (a *app) storeCurrency(ctx context.Context, storeID int64) string {
	store, err := a.catalog.Stores.Get(ctx, storeID)
	if err != nil || store.Currency == "" {
		return models.CurrencyNGN
	}
	return store.Currency
}
