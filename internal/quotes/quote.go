package quotes

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quote is an amount of quote currency (USDT, BTC, ...).
type Quote struct {
	Amount   decimal.Decimal
	Currency string
}

// ZeroQuote is the zero-amount sentinel, unattached to any currency.
var ZeroQuote = Quote{}

func NewQuote(amount decimal.Decimal, currency string) Quote {
	return Quote{Amount: amount, Currency: currency}
}

func NewQuoteFromFloat(amount float64, currency string) Quote {
	return Quote{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

// TakePercentage returns percentage * amount in the same currency.
func (q Quote) TakePercentage(percentage float64) Quote {
	return Quote{Amount: q.Amount.Mul(decimal.NewFromFloat(percentage)), Currency: q.Currency}
}

// SlotAmount splits the amount evenly across the given number of free slots.
func (q Quote) SlotAmount(freeSlots int) Quote {
	if freeSlots <= 0 {
		return q
	}
	return Quote{Amount: q.Amount.Div(decimal.NewFromInt(int64(freeSlots))), Currency: q.Currency}
}

// ManageAmountPrecision truncates to the given number of decimal digits,
// always toward zero. Exchanges reject orders whose size exceeds the
// instrument's declared precision, and rounding up could oversize an order.
func (q Quote) ManageAmountPrecision(precision int32) Quote {
	return Quote{Amount: q.Amount.Truncate(precision), Currency: q.Currency}
}

// Cmp compares amounts only. The currency tag is ignored.
func (q Quote) Cmp(other Quote) int {
	return q.Amount.Cmp(other.Amount)
}

func (q Quote) Equal(other Quote) bool {
	return q.Amount.Equal(other.Amount)
}

func (q Quote) LessThan(other Quote) bool {
	return q.Amount.LessThan(other.Amount)
}

func (q Quote) GreaterThan(other Quote) bool {
	return q.Amount.GreaterThan(other.Amount)
}

func (q Quote) GreaterThanOrEqual(other Quote) bool {
	return q.Amount.GreaterThanOrEqual(other.Amount)
}

func (q Quote) IsZero() bool {
	return q.Amount.IsZero()
}

func (q Quote) String() string {
	if q.Currency == "" {
		return q.Amount.String()
	}
	return fmt.Sprintf("%s %s", q.Amount, q.Currency)
}
