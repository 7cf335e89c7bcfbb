package main

import (
	"log"

	"StockPilot/pkg/api"
	"StockPilot/pkg/config"
	"StockPilot/pkg/database"
)

func main() {
	log.Println("启动API服务...")

	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v\n", err)
	}

	store, err := database.NewStore(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v\n", err)
	}
	defer store.Close()

	handlers := api.NewHandlers(store)

	server := api.NewServer(cfg.API.Port)
	server.SetupRoutes(handlers)
	server.Start()
}
