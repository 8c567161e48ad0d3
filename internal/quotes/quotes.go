// Package quotes implements the typed monetary value model: Price (a rate in
// a quote currency), Quote (an amount of quote currency) and Quantity (an
// amount of a base asset). The dimensional rule is Quantity * Price -> Quote.
//
// Equality and ordering compare the numeric amount only, never the currency
// tag. Downstream comparisons depend on this loose behavior; do not tighten
// it without product confirmation.
package quotes

import "errors"

// ErrUnitMismatch is returned by arithmetic that mixes quote currencies.
var ErrUnitMismatch = errors.New("quotes: mismatched quote currencies")
