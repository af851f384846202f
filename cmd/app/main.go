package main

import (
	"innkeeper/config"
	"innkeeper/di"
	"innkeeper/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	application := di.InitializeApp()
	application.Run()
}
