package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/library-system/library/app"
	"github.com/Astemirdum/library-system/library/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	app.Run(cfg)
}
