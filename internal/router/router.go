package router

import (
	"net/http"

	"github.com/TeaSui/whitelist-contracts/internal/config"
	"github.com/TeaSui/whitelist-contracts/internal/handler"
	"github.com/TeaSui/whitelist-contracts/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, saleLogic *logic.SaleLogic, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "whitelist-token-sale",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 销售相关路由
		saleHandler := handler.NewSaleHandler(saleLogic)
		sale := v1.Group("/sale")
		{
			sale.GET("/status", saleHandler.GetStatus)
			sale.GET("/quote", saleHandler.Quote)
			sale.GET("/eligibility/:address", saleHandler.CheckEligibility)
			sale.POST("/buy", saleHandler.Buy)
			sale.POST("/claim", saleHandler.Claim)
		}

		// 购买台账与事件路由
		purchaseHandler := handler.NewPurchaseRecordHandler(
			logic.NewPurchaseRecordLogic(db), logic.NewEventLogic(db))
		purchases := v1.Group("/purchases")
		{
			purchases.GET("", purchaseHandler.GetPurchases)
			purchases.GET("/stats", purchaseHandler.GetPurchaseStats)
			purchases.GET("/:address", purchaseHandler.GetPurchaseByAddress)
		}
		v1.GET("/events", purchaseHandler.GetEvents)

		// 管理相关路由，需要管理密钥
		adminHandler := handler.NewAdminHandler(saleLogic)
		admin := v1.Group("/admin", adminKeyMiddleware(cfg.Sale.AdminKey))
		{
			admin.PUT("/config", adminHandler.UpdateSaleConfig)
			admin.PUT("/claim", adminHandler.SetClaimEnabled)
			admin.POST("/whitelist", adminHandler.UpdateWhitelist)
			admin.POST("/whitelist/batch", adminHandler.UpdateWhitelistBatch)
			admin.PUT("/merkle-root", adminHandler.SetMerkleRoot)
			admin.POST("/withdraw/token", adminHandler.WithdrawToken)
			admin.POST("/withdraw/native", adminHandler.WithdrawNative)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Admin-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 管理密钥中间件
func adminKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("X-Admin-Key") != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "无效的管理密钥",
			})
			return
		}
		c.Next()
	}
}
