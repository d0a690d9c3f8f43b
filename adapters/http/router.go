package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khoahotran/folio/pkg/logger"
)

type RouterConfig struct {
	Logger         logger.Logger
	AuthHandler    *AuthHandler
	ProfileHandler *ProfileHandler
	// Admission guards the submission endpoint; nil leaves it open.
	Admission gin.HandlerFunc
	// AssetPrefix and AssetDir serve locally stored assets when both are set.
	AssetPrefix string
	AssetDir    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RecoverPanic(cfg.Logger), RequestLogger(cfg.Logger), ErrorMiddleware(cfg.Logger))

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.AssetPrefix != "" && cfg.AssetDir != "" {
		router.Static(cfg.AssetPrefix, cfg.AssetDir)
	}

	api := router.Group("/api")
	{
		api.POST("/verify-pin", cfg.AuthHandler.VerifyPin)
		api.GET("/profile", cfg.ProfileHandler.GetProfile)

		write := api.Group("/")
		if cfg.Admission != nil {
			write.Use(cfg.Admission)
		}
		write.POST("/save-profile", cfg.ProfileHandler.SaveProfile)
	}

	return router
}
