package quotes

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a rate expressed in a quote currency (e.g. 42000 USDT per BTC).
type Price struct {
	Amount decimal.Decimal
	Quote  string
}

// ZeroPrice is the "absent price" sentinel: amount 0, no quote tag. It
// participates in ordering comparisons like any other Price.
var ZeroPrice = Price{}

func NewPrice(amount decimal.Decimal, quote string) Price {
	return Price{Amount: amount, Quote: quote}
}

func NewPriceFromFloat(amount float64, quote string) Price {
	return Price{Amount: decimal.NewFromFloat(amount), Quote: quote}
}

// Sub subtracts another price with the same quote currency.
func (p Price) Sub(other Price) (Price, error) {
	if p.Quote != other.Quote {
		return ZeroPrice, fmt.Errorf("%w: %q - %q", ErrUnitMismatch, p.Quote, other.Quote)
	}
	return Price{Amount: p.Amount.Sub(other.Amount), Quote: p.Quote}, nil
}

// Add adds another price with the same quote currency.
func (p Price) Add(other Price) (Price, error) {
	if p.Quote != other.Quote {
		return ZeroPrice, fmt.Errorf("%w: %q + %q", ErrUnitMismatch, p.Quote, other.Quote)
	}
	return Price{Amount: p.Amount.Add(other.Amount), Quote: p.Quote}, nil
}

// MulFloat scales the price by a plain factor, keeping the quote currency.
func (p Price) MulFloat(factor float64) Price {
	return Price{Amount: p.Amount.Mul(decimal.NewFromFloat(factor)), Quote: p.Quote}
}

// TakePercentage returns percentage * price tagged with the given quote.
func (p Price) TakePercentage(percentage float64, quote string) Price {
	return Price{Amount: p.Amount.Mul(decimal.NewFromFloat(percentage)), Quote: quote}
}

// Cmp compares amounts only. The quote tag is ignored.
func (p Price) Cmp(other Price) int {
	return p.Amount.Cmp(other.Amount)
}

func (p Price) Equal(other Price) bool {
	return p.Amount.Equal(other.Amount)
}

func (p Price) LessThan(other Price) bool {
	return p.Amount.LessThan(other.Amount)
}

func (p Price) GreaterThan(other Price) bool {
	return p.Amount.GreaterThan(other.Amount)
}

func (p Price) GreaterThanOrEqual(other Price) bool {
	return p.Amount.GreaterThanOrEqual(other.Amount)
}

func (p Price) IsZero() bool {
	return p.Amount.IsZero()
}

func (p Price) String() string {
	if p.Quote == "" {
		return p.Amount.String()
	}
	return fmt.Sprintf("%s %s", p.Amount, p.Quote)
}
