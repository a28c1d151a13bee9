package main

import (
	"log"

	"github.com/TeaSui/whitelist-contracts/internal/chain"
	"github.com/TeaSui/whitelist-contracts/internal/config"
	"github.com/TeaSui/whitelist-contracts/internal/database"
	"github.com/TeaSui/whitelist-contracts/internal/ethereum"
	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/TeaSui/whitelist-contracts/internal/monitor"
	"github.com/TeaSui/whitelist-contracts/internal/repository"
	"github.com/TeaSui/whitelist-contracts/internal/router"
	"github.com/TeaSui/whitelist-contracts/internal/sale"
	"github.com/TeaSui/whitelist-contracts/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化以太坊客户端
	ethClient, err := ethereum.Init(cfg.Chain)
	if err != nil {
		log.Fatalf("Failed to initialize ethereum client: %v", err)
	}

	// 构建销售引擎及其业务逻辑
	repo := repository.NewSaleRepository(db)
	events := logic.NewEventLogic(db)
	engine, err := logic.Bootstrap(&cfg.Sale, repo, sale.Dependencies{
		Tokens: ethClient,
		Native: ethClient,
		Events: events,
	})
	if err != nil {
		log.Fatalf("Failed to bootstrap sale engine: %v", err)
	}
	saleLogic := logic.NewSaleLogic(engine, repo, events)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, saleLogic, cfg)

	// 启动定时任务
	taskManager, err := scheduler.Start(saleLogic, cfg)
	if err != nil {
		log.Fatalf("Failed to start task manager: %v", err)
	}
	defer taskManager.Stop()

	// 启动链上事件监控
	chainManager, err := chain.NewManager(cfg.Chain)
	if err != nil {
		logger.Error("Failed to initialize chain manager, event monitor disabled: %v", err)
	} else {
		defer chainManager.Close()
		eventMonitor := monitor.NewEventMonitor(chainManager, db)
		if err := eventMonitor.Start(); err != nil {
			logger.Error("Failed to start event monitor: %v", err)
		} else {
			defer eventMonitor.Stop()
		}
	}

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
