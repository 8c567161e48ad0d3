package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
)

var _ Task = (*AssetRefreshTask)(nil)

// AssetRefreshTask re-runs the registry load-and-reconcile cycle on a fixed
// interval, picking up edited pair lists without a restart. A failed reload
// is logged and retried on the next tick; the previously loaded set keeps
// trading meanwhile.
type AssetRefreshTask struct {
	registry *asset.Registry
	interval time.Duration
	logger   *slog.Logger
}

func NewAssetRefreshTask(registry *asset.Registry, interval time.Duration, logger *slog.Logger) *AssetRefreshTask {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &AssetRefreshTask{
		registry: registry,
		interval: interval,
		logger:   logger.With(slog.String("task", "asset-refresh")),
	}
}

func (t *AssetRefreshTask) Name() string {
	return "asset-refresh"
}

func (t *AssetRefreshTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := t.registry.Load(); err != nil {
			t.logger.Error("asset reload failed", slog.String("error", err.Error()))
			continue
		}
		t.logger.Info("assets reloaded", slog.Int("active", len(t.registry.Active())))
	}
}
