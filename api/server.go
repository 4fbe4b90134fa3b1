// Package api exposes the platform over HTTP with JWT-authenticated player
// routes and a separate operator surface.
package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP route tree
func NewRouter(handler *Handler, jwtService *JWTService, environment string) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/auth/register", handler.Register)

	authed := router.Group("/", AuthMiddleware(jwtService))
	{
		authed.GET("/me", handler.Profile)
		authed.GET("/me/ledger", handler.Ledger)
		authed.GET("/matches/:id", handler.GetMatch)

		authed.POST("/queue/join", handler.JoinQueue)
		authed.DELETE("/queue", handler.CancelQueue)
		authed.POST("/matches/:id/result", handler.SubmitResult)

		authed.POST("/wallet/deposits", handler.RequestDeposit)
		authed.POST("/wallet/withdrawals", handler.RequestWithdrawal)
	}

	admin := router.Group("/admin", AuthMiddleware(jwtService), AdminMiddleware())
	{
		admin.POST("/deposits/:id/approve", handler.ApproveDeposit)
		admin.POST("/withdrawals/:id/approve", handler.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", handler.RejectWithdrawal)
		admin.POST("/matches/:id/winner", handler.DeclareWinner)
		admin.POST("/matches/:id/cancel", handler.CancelMatch)
		admin.POST("/adjustments", handler.AdjustBalance)
	}

	return router
}
