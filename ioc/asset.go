package ioc

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/venantvr/gateio-rsi-bot/internal/asset"
)

func InitRegistry(logger *slog.Logger) *asset.Registry {
	type Config struct {
		PairsFile  string `mapstructure:"pairs_file"`
		Quote      string `mapstructure:"quote"`
		AssetLimit int    `mapstructure:"asset_limit"`
		DataDir    string `mapstructure:"data_dir"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("assets", &cfg); err != nil {
		panic(err)
	}
	return asset.NewRegistry(cfg.PairsFile, cfg.Quote, cfg.AssetLimit, cfg.DataDir, logger)
}
