package quotes

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantity is an amount of a base asset. Base is a display tag only and
// never influences arithmetic or comparison.
type Quantity struct {
	Amount decimal.Decimal
	Base   string
}

// ZeroQuantity is the zero-amount sentinel, unattached to any pair.
var ZeroQuantity = Quantity{}

func NewQuantity(amount decimal.Decimal, base string) Quantity {
	return Quantity{Amount: amount, Base: base}
}

func NewQuantityFromFloat(amount float64, base string) Quantity {
	return Quantity{Amount: decimal.NewFromFloat(amount), Base: base}
}

// MulPrice converts a base-asset quantity into quote currency:
// Quantity * Price -> Quote, denominated in the price's quote currency.
func (q Quantity) MulPrice(p Price) Quote {
	return Quote{Amount: q.Amount.Mul(p.Amount), Currency: p.Quote}
}

// ManageAmountPrecision truncates to the given number of decimal digits,
// always toward zero. See Quote.ManageAmountPrecision.
func (q Quantity) ManageAmountPrecision(precision int32) Quantity {
	return Quantity{Amount: q.Amount.Truncate(precision), Base: q.Base}
}

// Cmp compares amounts only. The base tag is ignored.
func (q Quantity) Cmp(other Quantity) int {
	return q.Amount.Cmp(other.Amount)
}

func (q Quantity) Equal(other Quantity) bool {
	return q.Amount.Equal(other.Amount)
}

func (q Quantity) LessThan(other Quantity) bool {
	return q.Amount.LessThan(other.Amount)
}

func (q Quantity) GreaterThan(other Quantity) bool {
	return q.Amount.GreaterThan(other.Amount)
}

func (q Quantity) IsZero() bool {
	return q.Amount.IsZero()
}

func (q Quantity) String() string {
	if q.Base == "" {
		return q.Amount.String()
	}
	return fmt.Sprintf("%s %s", q.Amount, q.Base)
}
