// Package aggregate sums transaction amounts into income and spend totals.
package aggregate

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budget/internal/model"
)

// Totals is the signed sum of a batch of transactions.
type Totals struct {
	Income   decimal.Decimal
	Spending decimal.Decimal // zero or negative
	Net      decimal.Decimal
}

// Summarize folds txns into Totals.
func Summarize(txns []model.Transaction) Totals {
	income := decimal.Zero
	spending := decimal.Zero
	for _, t := range txns {
		if t.Amount.IsNegative() {
			spending = spending.Add(t.Amount)
		} else {
			income = income.Add(t.Amount)
		}
	}
	return Totals{
		Income:   income,
		Spending: spending,
		Net:      income.Add(spending),
	}
}

// Print writes the totals rounded to cents.
func (t Totals) Print(w io.Writer) error {
	net := color.New(color.FgGreen)
	if t.Net.IsNegative() {
		net = color.New(color.FgRed)
	}
	if _, err := fmt.Fprintf(w, "Income total: %s\n", t.Income.StringFixed(2)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Spending total: %s\n", t.Spending.StringFixed(2)); err != nil {
		return err
	}
	_, err := net.Fprintf(w, "Difference: %s\n", t.Net.StringFixed(2))
	return err
}
