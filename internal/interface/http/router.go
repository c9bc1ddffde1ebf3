package httpservice

import (
	"github.com/ark-network/ark-dice/internal/core/application"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func newRouter(appSvc application.Service, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handler{appSvc}

	v1 := router.Group("/v1")
	v1.GET("/info", h.getInfo)
	v1.GET("/game-addresses", h.getGameAddresses)
	v1.GET("/nonce", h.getCurrentNonce)
	v1.GET("/nonces", h.listNonces)
	v1.GET("/nonces/:hash", h.revealNonce)
	v1.GET("/games", h.listGames)
	v1.GET("/games/:txid", h.getGame)
	v1.GET("/donations", h.listDonations)
	v1.POST("/verify", h.verify)
	v1.GET("/events", h.streamEvents)

	var admin *gin.RouterGroup
	if cfg.withAdminAuth() {
		admin = v1.Group("/admin", gin.BasicAuth(gin.Accounts{cfg.AdminUser: cfg.AdminPass}))
	} else {
		log.Warn("admin routes are not protected, set admin user and password to enable auth")
		admin = v1.Group("/admin")
	}
	admin.POST("/nonce/rotate", h.rotateNonce)
	admin.POST("/payouts/retry", h.retryPayouts)
	admin.GET("/payouts/pending", h.pendingPayouts)
	admin.POST("/consolidate", h.consolidate)
	admin.POST("/recover", h.recoverPayments)
	admin.GET("/unresolved", h.listUnresolved)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("handled request")
	}
}
