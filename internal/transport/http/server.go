// Package http exposes the relay's boundary operations over HTTP: channel
// creation, membership token issuance, the privileged delete, and the
// WebSocket upgrade that binds a token to a live connection.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/anonrelay/anonrelay-server/internal/config"
	"github.com/anonrelay/anonrelay-server/internal/core"
)

// NewServer builds the HTTP server with all routes registered.
func NewServer(manager *core.Manager, binder *core.Binder, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	handlers := NewChannelHandlers(manager, logger)
	ws := NewWSHandler(binder, logger)

	router.GET("/health", healthHandler)
	router.GET("/createchat", handlers.CreateChat)
	router.GET("/authtoken", handlers.AuthToken)
	router.GET("/deletechat", handlers.DeleteChat)
	router.GET("/gc", ws.Handle(core.KindGroup))
	router.GET("/dm", ws.Handle(core.KindDirect))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
