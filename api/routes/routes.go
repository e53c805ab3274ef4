package routes

import (
	"net/http"

	"github.com/ArowuTest/raffle-backend/internal/config"
	"github.com/ArowuTest/raffle-backend/internal/handlers"
	"github.com/ArowuTest/raffle-backend/internal/middleware"
	tokens "github.com/ArowuTest/raffle-backend/pkg/jwt"
	"github.com/ArowuTest/raffle-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// HandlerDependencies holds the handlers and gates wired into the router
type HandlerDependencies struct {
	SettingsHandler *handlers.SystemConfigHandler
	RaffleHandler   *handlers.RaffleHandler
	CouponHandler   *handlers.CouponHandler
	VoucherHandler  *handlers.VoucherHandler
	UserHandler     *handlers.UserHandler
	TokenService    *tokens.TokenService
	Metrics         *metrics.Collector
	// Health reports whether backing stores are reachable; nil means always healthy
	Health func(c *gin.Context) error
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", deps.Metrics.Handler())
	}

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			if deps.Health != nil {
				if err := deps.Health(c); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		raffles := public.Group("/raffles")
		{
			raffles.GET("/open", deps.RaffleHandler.GetOpenRaffle)
			raffles.GET("/:id", deps.RaffleHandler.GetRaffle)
			raffles.GET("/:id/winners", deps.RaffleHandler.GetWinners)
		}
	}

	// Participant routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(deps.TokenService))
	{
		protected.GET("/me", deps.UserHandler.Me)
		protected.GET("/me/numbers", deps.UserHandler.MyNumbers)
		protected.GET("/me/history", deps.UserHandler.History)

		protected.GET("/numbers/preview", deps.SettingsHandler.PreviewNumbers)
		protected.GET("/coupons/preview", deps.CouponHandler.PreviewCoupon)

		protected.POST("/vouchers", deps.VoucherHandler.SubmitVoucher)
		protected.GET("/vouchers", deps.VoucherHandler.ListMyVouchers)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(deps.TokenService), middleware.AdminOnly())
	{
		admin.GET("/settings", deps.SettingsHandler.GetSettings)
		admin.PUT("/settings", deps.SettingsHandler.UpdateSettings)

		raffles := admin.Group("/raffles")
		{
			raffles.POST("", deps.RaffleHandler.CreateRaffle)
			raffles.GET("", deps.RaffleHandler.ListRaffles)
			raffles.PUT("/:id/video", deps.RaffleHandler.UpdateVideo)
			raffles.POST("/:id/close", deps.RaffleHandler.CloseRaffle)
		}

		coupons := admin.Group("/coupons")
		{
			coupons.GET("", deps.CouponHandler.ListCoupons)
			coupons.POST("", deps.CouponHandler.CreateCoupon)
			coupons.POST("/import", deps.CouponHandler.ImportCoupons)
			coupons.PUT("/:id", deps.CouponHandler.UpdateCoupon)
			coupons.PATCH("/:id/toggle", deps.CouponHandler.ToggleCoupon)
			coupons.DELETE("/:id", deps.CouponHandler.DeleteCoupon)
		}

		vouchers := admin.Group("/vouchers")
		{
			vouchers.GET("", deps.VoucherHandler.ListVouchers)
			vouchers.POST("/:id/approve", deps.VoucherHandler.ApproveVoucher)
			vouchers.POST("/:id/reject", deps.VoucherHandler.RejectVoucher)
		}

		admin.POST("/users", deps.UserHandler.CreateUser)
		admin.GET("/users/:id", deps.UserHandler.GetPlayer)
		admin.GET("/players", deps.UserHandler.SearchPlayers)
		admin.GET("/dashboard", deps.UserHandler.Dashboard)
	}

	return router
}
