package main

import (
	stdLog "log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/book-manager/bookui/app"
	"github.com/Astemirdum/book-manager/bookui/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env loaded: ", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	if err := app.Run(cfg); err != nil {
		stdLog.Fatal("app.Run ", err)
	}
}
