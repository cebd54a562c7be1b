package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/campaign-bot/internal/middleware"
	"github.com/wfunc/campaign-bot/internal/service"
	"github.com/wfunc/campaign-bot/internal/transcript"
	"github.com/wfunc/campaign-bot/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine              *gin.Engine
	db                  *gorm.DB
	services            *service.Services
	campaignHandler     *CampaignHandler
	membershipHandler   *MembershipHandler
	characterHandler    *CharacterHandler
	serverConfigHandler *ServerConfigHandler
	authMiddleware      *middleware.AuthMiddleware
	log                 *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(
	db *gorm.DB,
	services *service.Services,
	transcriptLogger *transcript.Logger,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger())

	router := &Router{
		engine:              engine,
		db:                  db,
		services:            services,
		campaignHandler:     NewCampaignHandler(services.Campaign, transcriptLogger),
		membershipHandler:   NewMembershipHandler(services.Membership),
		characterHandler:    NewCharacterHandler(services.Character),
		serverConfigHandler: NewServerConfigHandler(services.ServerConfig),
		authMiddleware:      middleware.NewAuthMiddleware(jwtManager),
		log:                 log,
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth())
	{
		// 战役
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", r.campaignHandler.Create)
			campaigns.GET("", r.campaignHandler.List)
			campaigns.GET("/continue", r.campaignHandler.Continue)

			// 成员操作
			campaigns.POST("/join", r.membershipHandler.Join)
			campaigns.POST("/end", r.membershipHandler.End)
			campaigns.POST("/leave", r.membershipHandler.Leave)

			campaigns.GET("/:name", r.campaignHandler.Get)
			campaigns.DELETE("/:name", r.campaignHandler.Delete)
			campaigns.POST("/:name/save", r.campaignHandler.Save)
			campaigns.POST("/:name/autosave", r.campaignHandler.Autosave)
			campaigns.POST("/:name/transcript", r.campaignHandler.AppendTranscript)
		}

		// 玩家
		players := v1.Group("/players")
		{
			players.GET("/:id/status", r.membershipHandler.PlayerStatus)
		}

		// 角色卡
		characters := v1.Group("/characters")
		{
			characters.POST("", r.characterHandler.Create)
			characters.GET("", r.characterHandler.List)
			characters.PUT("", r.characterHandler.Update)
			characters.DELETE("", r.characterHandler.Remove)
		}

		// 服务器配置
		servers := v1.Group("/servers")
		{
			servers.GET("/:id/config", r.serverConfigHandler.Get)

			// 只有管理员能改配置
			admin := servers.Group("")
			admin.Use(r.authMiddleware.RequireAdmin())
			{
				admin.PUT("/:id/config", r.serverConfigHandler.Update)
				admin.PUT("/:id/config/api-key", r.serverConfigHandler.SetAPIKey)
			}
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
