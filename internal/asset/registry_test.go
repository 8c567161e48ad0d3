package asset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name string, symbols []string) string {
	t.Helper()
	raw, err := json.Marshal(symbols)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func writePairsConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "pairs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRegistry(t *testing.T, dir string, limit int) *Registry {
	t.Helper()
	cfg := filepath.Join(dir, "pairs.yaml")
	return NewRegistry(cfg, "USDT", limit, t.TempDir(), slog.Default())
}

func TestRegistryLoadActivatesEnabledSources(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.json", []string{"BTC_USDT", "ETH_USDT"})
	writeSource(t, dir, "extra.json", []string{"SOL_USDT"})
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: top.json
    enabled: true
  - file: extra.json
    enabled: false
`)

	reg := testRegistry(t, dir, 10)
	require.NoError(t, reg.Load())

	active := reg.Active()
	assert.Len(t, active, 2)
	_, ok := reg.Get("BTC_USDT")
	assert.True(t, ok)
	_, ok = reg.Get("SOL_USDT")
	assert.False(t, ok, "disabled source must not contribute pairs")
}

func TestRegistryForbiddenSymbolsDropped(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.json", []string{"BTC_USDT", "SCAM_USDT"})
	writePairsConfig(t, dir, `
forbidden:
  - SCAM_USDT
sources:
  - file: top.json
    enabled: true
`)

	reg := testRegistry(t, dir, 10)
	require.NoError(t, reg.Load())

	_, ok := reg.Get("SCAM_USDT")
	assert.False(t, ok)
	_, ok = reg.Get("BTC_USDT")
	assert.True(t, ok)
}

// The asset limit caps each source file independently. Selection order
// follows map iteration and is not guaranteed, so the test accepts either
// survivor.
func TestRegistryAssetLimitPerSource(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.json", []string{"BTC_USDT", "ETH_USDT"})
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: top.json
    enabled: true
`)

	reg := testRegistry(t, dir, 1)
	require.NoError(t, reg.Load())

	active := reg.Active()
	require.Len(t, active, 1)
	assert.Contains(t, []string{"BTC_USDT", "ETH_USDT"}, active[0].ID)
}

func TestRegistrySoftDeleteOnReload(t *testing.T) {
	dir := t.TempDir()
	source := writeSource(t, dir, "top.json", []string{"BTC_USDT", "ETH_USDT"})
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: top.json
    enabled: true
`)

	reg := testRegistry(t, dir, 10)
	require.NoError(t, reg.Load())

	eth, ok := reg.Get("ETH_USDT")
	require.True(t, ok)
	eth.SetReadyState(false) // arm the pair so we can check state survival

	// Drop ETH from the source and force a distinct mtime.
	writeSource(t, dir, "top.json", []string{"BTC_USDT"})
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(source, later, later))

	require.NoError(t, reg.Load())

	assert.Len(t, reg.Active(), 1)
	assert.Len(t, reg.Assets(), 2, "pairs are never removed once loaded")

	eth, ok = reg.Get("ETH_USDT")
	require.True(t, ok)
	assert.False(t, eth.IsActive)
	assert.True(t, eth.ReadyState(), "soft delete preserves strategy state")

	// Bring ETH back: the same instance is reactivated in place.
	writeSource(t, dir, "top.json", []string{"BTC_USDT", "ETH_USDT"})
	evenLater := later.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(source, evenLater, evenLater))
	require.NoError(t, reg.Load())

	reborn, ok := reg.Get("ETH_USDT")
	require.True(t, ok)
	assert.True(t, reborn.IsActive)
	assert.Same(t, eth, reborn)
}

func TestRegistryUnchangedSourceSkipsReparse(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.json", []string{"BTC_USDT"})
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: top.json
    enabled: true
`)

	reg := testRegistry(t, dir, 10)
	require.NoError(t, reg.Load())
	first, _ := reg.Get("BTC_USDT")

	// Unchanged mtime: candidates come from the cache and the pair stays
	// active.
	require.NoError(t, reg.Load())
	second, ok := reg.Get("BTC_USDT")
	require.True(t, ok)
	assert.True(t, second.IsActive)
	assert.Same(t, first, second)
}

func TestRegistryPassthroughFromSource(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "top.json", []string{"BTC_USDT"})
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: top.json
    enabled: true
    passthrough:
      macd:
        - overbought
`)

	reg := testRegistry(t, dir, 10)
	require.NoError(t, reg.Load())

	pair, ok := reg.Get("BTC_USDT")
	require.True(t, ok)
	assert.True(t, pair.ShouldAvoidCondition("macd", "overbought"))
}

func TestRegistryMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	writePairsConfig(t, dir, `
forbidden: []
sources:
  - file: nope.json
    enabled: true
`)

	reg := testRegistry(t, dir, 10)
	assert.Error(t, reg.Load(), "configuration errors are fatal before trading begins")
}
