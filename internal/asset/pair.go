// Package asset holds the bot-local currency-pair entity and the registry
// that loads and reconciles the tradable set from layered configuration.
package asset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/venantvr/gateio-rsi-bot/internal/quotes"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

// Pair extends the exchange descriptor with bot-local state. Instances live
// for the whole process: the registry mutates IsActive in place on each
// refresh cycle and never removes a pair once loaded.
type Pair struct {
	exchange.CurrencyPair

	// PassthroughConditions maps an actor name to the lowercase condition
	// tags that actor may skip for this pair. Appending the same condition
	// twice duplicates it; dedup here would change strategy behavior.
	PassthroughConditions map[string][]string

	MinimumPrice quotes.Price
	MaximumPrice quotes.Price

	IsActive bool
	isReady  bool

	// DataDirectory roots the per-pair file tree (candle backups, event
	// dumps, model artifacts).
	DataDirectory string

	Models map[string]Model
}

func NewPair(id, base, quote, dataDir string) *Pair {
	if dataDir == "" {
		dataDir = os.TempDir()
	}
	return &Pair{
		CurrencyPair: exchange.CurrencyPair{
			ID:    id,
			Base:  base,
			Quote: quote,
		},
		PassthroughConditions: make(map[string][]string),
		MinimumPrice:          quotes.ZeroPrice,
		MaximumPrice:          quotes.ZeroPrice,
		IsActive:              true,
		DataDirectory:         dataDir,
	}
}

// AddPassthroughCondition appends lowercased conditions under the actor's
// key. Idempotency is not enforced: repeated calls duplicate entries.
func (p *Pair) AddPassthroughCondition(actor string, conditions []string) {
	key := strings.ToLower(actor)
	for _, condition := range conditions {
		p.PassthroughConditions[key] = append(p.PassthroughConditions[key], strings.ToLower(condition))
	}
}

// SetPriceBounds constrains the price range the bot will enter positions
// in. A zero bound leaves that side unbounded.
func (p *Pair) SetPriceBounds(minimum, maximum quotes.Price) {
	p.MinimumPrice = minimum
	p.MaximumPrice = maximum
}

// WithinPriceBounds reports whether a price falls inside the configured
// bounds.
func (p *Pair) WithinPriceBounds(price quotes.Price) bool {
	if !p.MinimumPrice.IsZero() && price.LessThan(p.MinimumPrice) {
		return false
	}
	if !p.MaximumPrice.IsZero() && price.GreaterThan(p.MaximumPrice) {
		return false
	}
	return true
}

// ShouldAvoidCondition reports whether the actor registered the condition.
func (p *Pair) ShouldAvoidCondition(actor, condition string) bool {
	values, ok := p.PassthroughConditions[strings.ToLower(actor)]
	if !ok {
		return false
	}
	want := strings.ToLower(condition)
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// SetReadyState transitions the pair to ready only when the external check
// result is false and the pair was not ready yet. The inversion is inherited
// behavior; strategies depend on it, so it is kept as is.
func (p *Pair) SetReadyState(result bool) bool {
	if !p.isReady && !result {
		p.isReady = true
		return true
	}
	return false
}

func (p *Pair) ReadyState() bool {
	return p.isReady
}

// entityDir creates and returns the per-pair directory for an entity kind.
func (p *Pair) entityDir(entityType string) string {
	dir := filepath.Join(p.DataDirectory, entityType)
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// DataframeBackupPath is where the processed candle series is persisted.
func (p *Pair) DataframeBackupPath() string {
	return filepath.Join(p.entityDir("dataframes"), strings.ToLower(p.ID)+"_backup.csv")
}

// RawCandleBackupPath is where the raw candle series for one timeframe is
// persisted.
func (p *Pair) RawCandleBackupPath(interval exchange.Interval) string {
	name := strings.ToLower(p.ID) + "_" + interval.ToString() + "_backup.csv"
	return filepath.Join(p.entityDir("timeframes"), name)
}

// EventsDumpPath is where event snapshots are dumped as JSON.
func (p *Pair) EventsDumpPath() string {
	return filepath.Join(p.entityDir("events"), strings.ToLower(p.ID)+"_dump_file.json")
}

// Equal compares by pair id only.
func (p *Pair) Equal(other *Pair) bool {
	return other != nil && p.ID == other.ID
}

func (p *Pair) String() string {
	return p.ID
}
