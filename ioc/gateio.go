package ioc

import (
	"github.com/spf13/viper"

	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange/gateio"
)

func InitGateioCli() *gateio.Client {
	type Config struct {
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		Host      string `mapstructure:"host"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("cex.gateio", &cfg); err != nil {
		panic(err)
	}

	var opts []gateio.ClientOption
	if cfg.Host != "" {
		opts = append(opts, gateio.WithHost(cfg.Host))
	}
	return gateio.NewClient(cfg.ApiKey, cfg.ApiSecret, opts...)
}

func InitProxyConfig() gateio.Config {
	var cfg gateio.Config
	if err := viper.UnmarshalKey("bot", &cfg); err != nil {
		panic(err)
	}
	return cfg
}
