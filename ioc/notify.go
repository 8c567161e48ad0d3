package ioc

import (
	"github.com/spf13/viper"

	"github.com/venantvr/gateio-rsi-bot/internal/notify"
)

func InitNotifier() notify.Service {
	if !viper.GetBool("telegram.enabled") {
		return notify.Nop{}
	}

	var cfg notify.TelegramConfig
	if err := viper.UnmarshalKey("telegram", &cfg); err != nil {
		panic(err)
	}
	return notify.NewTelegram(cfg)
}
