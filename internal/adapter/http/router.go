package http

import (
	"log/slog"

	"github.com/aq2208/order-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/order-api/internal/entity"
	"github.com/aq2208/order-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *OrderHandler, th *TokenHandler, authz *middleware.Authz, l *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1/orders", authz.Require())
	{
		v1.POST("", h.CreateOrder)
		v1.GET("", authz.RequireRole(domain.RoleAdmin), h.ListAllOrders)
		v1.GET("/me", h.ListMyOrders)
		v1.GET("/:id", h.GetOrder)
		v1.GET("/:id/status", h.GetOrderStatus)
		v1.PATCH("/:id", h.UpdatePayment)
		v1.POST("/:id/charge", h.ChargeOrder)
	}

	return r
}
