package cmd

import (
	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/database"
	"github.com/waassist/connector/pkg/logger"
	"github.com/waassist/connector/pkg/server"
	"github.com/waassist/connector/pkg/utils"
	"go.uber.org/zap"
)

func StartApp() {
	utils.LoadEnv()
	config := config.InitConfig()
	logger.Init(config.Logger)
	defer zap.L().Sync()

	database.InitDB(config.Database)
	server.LaunchHttpServer(config)
}
