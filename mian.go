package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/venantvr/gateio-rsi-bot/internal/repo"
	"github.com/venantvr/gateio-rsi-bot/internal/schedule"
	"github.com/venantvr/gateio-rsi-bot/internal/service/exchange/gateio"
	"github.com/venantvr/gateio-rsi-bot/ioc"
)

func initViper() {

	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	viper.SetConfigFile(*file)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}

}

func main() {
	initViper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	tradeRepo := repo.NewTradeRepo(db)

	registry := ioc.InitRegistry(logger)
	if err := registry.Load(); err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	proxy, err := gateio.NewProxy(ctx, ioc.InitGateioCli(), ioc.InitProxyConfig(),
		gateio.WithLedger(tradeRepo),
		gateio.WithNotifier(ioc.InitNotifier()),
		gateio.WithLogger(logger))
	if err != nil {
		panic(err)
	}

	// Rebuild in-flight positions from the ledger before anything trades.
	open, err := tradeRepo.FetchOpenTrades(ctx)
	if err != nil {
		panic(err)
	}
	for pairID, trade := range open {
		logger.Info("open position recovered",
			slog.String("pair", pairID),
			slog.String("thread", trade.Thread),
			slog.String("price", trade.Price))
	}
	proxy.QuotePosition(ctx)

	refresh := schedule.NewAssetRefreshTask(registry, viper.GetDuration("assets.refresh_interval"), logger)
	if err := refresh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
