package asset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange"
)

// SourceConfig is one entry of the pairs configuration file: a JSON file
// holding an array of symbol strings, an enabled flag and the passthrough
// conditions to attach to every pair that file contributes.
type SourceConfig struct {
	File        string              `mapstructure:"file"`
	Enabled     bool                `mapstructure:"enabled"`
	Passthrough map[string][]string `mapstructure:"passthrough"`
}

type pairsConfiguration struct {
	Forbidden []string       `mapstructure:"forbidden"`
	Sources   []SourceConfig `mapstructure:"sources"`
}

// Registry loads and reconciles the active set of tradable pairs. Pairs are
// soft-deleted: once loaded they are only ever toggled inactive, preserving
// readiness flags and passthrough state across reload cycles.
type Registry struct {
	configPath    string
	quoteCurrency string
	assetLimit    int
	dataDir       string
	logger        *slog.Logger

	mu     sync.Mutex
	loaded []*Pair
	index  map[string]*Pair
	// mtimes and cache implement the per-source skip-unchanged fast path:
	// an unchanged file is not re-parsed, its last candidate set is reused.
	mtimes map[string]time.Time
	cache  map[string][]*Pair
}

func NewRegistry(configPath, quoteCurrency string, assetLimit int, dataDir string, logger *slog.Logger) *Registry {
	return &Registry{
		configPath:    configPath,
		quoteCurrency: quoteCurrency,
		assetLimit:    assetLimit,
		dataDir:       dataDir,
		logger:        logger.With(slog.String("component", "asset-registry")),
		index:         make(map[string]*Pair),
		mtimes:        make(map[string]time.Time),
		cache:         make(map[string][]*Pair),
	}
}

// Load runs one full load-and-reconcile cycle under the registry lock.
// Configuration errors propagate: a broken pairs file must abort startup
// before any trading begins.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := r.readConfiguration()
	if err != nil {
		return err
	}
	forbidden := lo.SliceToMap(cfg.Forbidden, func(s string) (string, struct{}) {
		return s, struct{}{}
	})

	var candidates []*Pair
	for _, source := range cfg.Sources {
		if !source.Enabled {
			continue
		}
		path := r.resolveSourcePath(source.File)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("asset: stat source %s: %w", path, err)
		}
		if !info.ModTime().Equal(r.mtimes[path]) {
			parsed, err := r.parseSource(path, source, forbidden)
			if err != nil {
				return err
			}
			r.cache[path] = parsed
			r.mtimes[path] = info.ModTime()
			r.logger.Info("source reloaded",
				slog.String("file", source.File),
				slog.Int("pairs", len(parsed)))
		}
		candidates = append(candidates, r.cache[path]...)
	}

	r.updateActiveTokens(candidates)
	r.refreshIndex()
	return nil
}

// parseSource reads one JSON symbol array and normalizes it into pairs,
// dropping forbidden symbols and capping at the asset limit. The cap applies
// per source file, not globally, and selection order follows map iteration.
func (r *Registry) parseSource(path string, source SourceConfig, forbidden map[string]struct{}) ([]*Pair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset: read source %s: %w", path, err)
	}
	var symbols []string
	if err := json.Unmarshal(raw, &symbols); err != nil {
		return nil, fmt.Errorf("asset: parse source %s: %w", path, err)
	}

	set := make(map[string]*Pair)
	for _, symbol := range symbols {
		if _, bad := forbidden[symbol]; bad {
			continue
		}
		pair := NormalizePair(symbol, true, r.quoteCurrency, r.dataDir)
		if pair == nil {
			continue
		}
		set[pair.ID] = pair
	}

	candidates := make([]*Pair, 0, len(set))
	for _, pair := range set {
		if r.assetLimit > 0 && len(candidates) >= r.assetLimit {
			break
		}
		for actor, conditions := range source.Passthrough {
			pair.AddPassthroughCondition(actor, conditions)
		}
		candidates = append(candidates, pair)
	}
	return candidates, nil
}

func (r *Registry) readConfiguration() (pairsConfiguration, error) {
	v := viper.New()
	v.SetConfigFile(r.configPath)
	if err := v.ReadInConfig(); err != nil {
		return pairsConfiguration{}, fmt.Errorf("asset: read pairs configuration: %w", err)
	}
	var cfg pairsConfiguration
	if err := v.Unmarshal(&cfg); err != nil {
		return pairsConfiguration{}, fmt.Errorf("asset: unmarshal pairs configuration: %w", err)
	}
	return cfg, nil
}

// resolveSourcePath resolves a source file relative to the pairs
// configuration file.
func (r *Registry) resolveSourcePath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(filepath.Dir(r.configPath), file)
}

// updateActiveTokens reconciles candidates against the loaded list by id:
// known ids are reactivated in place, unknown ids appended, and loaded pairs
// absent from this cycle's candidates marked inactive. The linear id scan is
// fine at tens to low-hundreds of pairs.
func (r *Registry) updateActiveTokens(candidates []*Pair) {
	for _, candidate := range candidates {
		found := false
		for _, token := range r.loaded {
			if token.ID == candidate.ID {
				token.IsActive = true
				found = true
				break
			}
		}
		if !found {
			r.loaded = append(r.loaded, candidate)
		}
	}

	candidateIDs := lo.SliceToMap(candidates, func(p *Pair) (string, struct{}) {
		return p.ID, struct{}{}
	})
	for _, token := range r.loaded {
		if _, ok := candidateIDs[token.ID]; !ok {
			token.IsActive = false
		}
	}
}

func (r *Registry) refreshIndex() {
	for _, pair := range r.loaded {
		if _, ok := r.index[pair.ID]; !ok {
			r.index[pair.ID] = pair
		}
	}
}

// Assets returns a snapshot of every loaded pair, active or not.
func (r *Registry) Assets() []*Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pair, len(r.loaded))
	copy(out, r.loaded)
	return out
}

// Active returns the currently active pairs.
func (r *Registry) Active() []*Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Filter(r.loaded, func(p *Pair, _ int) bool {
		return p.IsActive
	})
}

// Get looks a pair up by id.
func (r *Registry) Get(id string) (*Pair, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pair, ok := r.index[id]
	return pair, ok
}

// ConfigureModels applies the model configuration to every loaded pair.
func (r *Registry) ConfigureModels(models map[string]ModelConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pair := range r.loaded {
		if err := pair.ConfigureModels(models); err != nil {
			return err
		}
	}
	return nil
}

// NormalizePair turns a raw symbol ("BTC/USDT", "eth-usdt", "DOGE") into a
// Pair. When keepPairQuote is false, or the symbol carries no quote part, the
// trading quote is used. Symbols whose base equals their quote are invalid
// and yield nil.
func NormalizePair(symbol string, keepPairQuote bool, tradingQuote, dataDir string) *Pair {
	base, quote := exchange.SplitSymbol(symbol)
	tradingQuote = strings.ToUpper(tradingQuote)
	if !keepPairQuote || quote == "" {
		quote = tradingQuote
	}
	if base == quote {
		return nil
	}
	return NewPair(exchange.PairID(base, quote), base, quote, dataDir)
}
