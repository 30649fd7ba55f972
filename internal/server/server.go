// Package server is the HTTP boundary: it validates requests, runs them
// through the multi-account executor and passes the {code,msg,data}
// envelope through unchanged.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/betbot/gokx/internal/executor"
	"github.com/betbot/gokx/internal/marketdata"
	"github.com/betbot/gokx/internal/signals"
	"github.com/betbot/gokx/pkg/config"
)

type Server struct {
	exec     *executor.Executor
	signals  *signals.Service
	feed     *marketdata.Feed // 可选，ws 行情缓存
	settings *config.Settings
}

func New(exec *executor.Executor, sigs *signals.Service, feed *marketdata.Feed, settings *config.Settings) *Server {
	return &Server{exec: exec, signals: sigs, feed: feed, settings: settings}
}

// Router builds the gin handler tree.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")

	api.GET("/accounts", s.handleAccounts)
	api.GET("/balance", s.handleBalance)
	api.GET("/positions", s.handlePositions)
	api.GET("/pending-orders", s.handlePendingOrders)

	api.POST("/order/place", s.handlePlaceOrder)
	api.POST("/order/place-by-percentage", s.handlePlaceOrderByPercentage)
	api.POST("/order/conditional", s.handleConditionalOrder)
	api.POST("/order/cancel-all", s.handleCancelAllOrders)
	api.POST("/leverage/set", s.handleSetLeverage)
	api.POST("/positions/close-all", s.handleCloseAllPositions)

	api.POST("/history/orders", s.handleOrderHistory)
	api.POST("/history/fills", s.handleFillsHistory)
	api.POST("/analytics/pnl", s.handlePnLSummary)

	api.GET("/market/ticker", s.handleTicker)
	api.GET("/market/instruments", s.handleInstruments)

	api.GET("/signals", s.handleSignals)

	return r
}

// corsMiddleware mirrors the permissive policy of the original dashboard
// backend: any origin, credentials allowed.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
