package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Card identifies the issuer feed a transaction came from.
type Card string

const (
	CardUSAA       Card = "USAA"
	CardCapitalOne Card = "CapitalOne"
)

// Transaction is one normalized row from a bank or card export.
type Transaction struct {
	Amount      decimal.Decimal // negative = spend, positive = income
	Date        time.Time       // UTC midnight
	Card        Card
	Description string // canonical, see normalize.Normalizer
}

func (t Transaction) String() string {
	return fmt.Sprintf("Amount: %s | Date: %s | Card: %s | Description: %s",
		t.Amount.StringFixed(2), t.Date.Format("2006-01-02"), t.Card, t.Description)
}
