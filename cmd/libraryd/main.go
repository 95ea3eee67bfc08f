package main

import (
	"os"
	"time"

	"github.com/bookworm-app/bookworm/config"
	"github.com/bookworm-app/bookworm/libraryd/app"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	app.Run(cfg)
}
