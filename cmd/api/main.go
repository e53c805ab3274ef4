package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ArowuTest/raffle-backend/api/routes"
	"github.com/ArowuTest/raffle-backend/internal/config"
	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/handlers"
	mongorepo "github.com/ArowuTest/raffle-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/raffle-backend/internal/services"
	tokens "github.com/ArowuTest/raffle-backend/pkg/jwt"
	"github.com/ArowuTest/raffle-backend/pkg/lotteryfeed"
	"github.com/ArowuTest/raffle-backend/pkg/metrics"
	"github.com/ArowuTest/raffle-backend/pkg/mongodb"
	"github.com/ArowuTest/raffle-backend/pkg/redislock"
	"github.com/ArowuTest/raffle-backend/pkg/voucherai"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()

	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	var locker redislock.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := redislock.NewClientFromURL(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		locker = redislock.NewRedisLocker(redisClient, "lock:", redislock.WithTTL(cfg.Redis.LockTTL))
		slog.Info("Using Redis allocation lock")
	} else {
		locker = redislock.NewLocalLocker()
		slog.Warn("REDIS_URL not set, using in-process allocation lock; run a single instance")
	}

	collector := metrics.NewCollector("raffle")

	validator := voucherai.NewClient(cfg.VoucherAI.BaseURL, cfg.VoucherAI.APIKey, cfg.VoucherAI.MockAPI)
	validator.ApprovalRate = cfg.VoucherAI.ApprovalRate
	validator.MockLatency = cfg.VoucherAI.MockLatency
	feed := lotteryfeed.NewClient(cfg.LotteryFeed.URL, cfg.LotteryFeed.MockAPI)

	// Repositories
	configRepo := mongorepo.NewSystemConfigRepository(db)
	raffleRepo := mongorepo.NewRaffleRepository(db)
	couponRepo := mongorepo.NewCouponRepository(db)
	voucherRepo := mongorepo.NewVoucherRepository(db)
	numberRepo := mongorepo.NewRaffleNumberRepository(db)
	userRepo := mongorepo.NewUserRepository(db)
	winnerRepo := mongorepo.NewWinnerRepository(db)

	// Services
	settingsService := services.NewSystemConfigService(configRepo, raffleRepo)
	raffleService := services.NewRaffleService(raffleRepo, numberRepo, winnerRepo, userRepo,
		settingsService, engine.NewDrawEngine(nil, feed), locker, collector)
	couponService := services.NewCouponService(couponRepo, settingsService)
	voucherService := services.NewVoucherService(voucherRepo, couponRepo, raffleRepo, numberRepo,
		settingsService, validator, engine.NewAllocator(nil), locker, collector)
	userService := services.NewUserService(userRepo, raffleRepo, numberRepo, voucherRepo, winnerRepo)

	router := routes.SetupRouter(cfg, routes.HandlerDependencies{
		SettingsHandler: handlers.NewSystemConfigHandler(settingsService),
		RaffleHandler:   handlers.NewRaffleHandler(raffleService),
		CouponHandler:   handlers.NewCouponHandler(couponService),
		VoucherHandler:  handlers.NewVoucherHandler(voucherService),
		UserHandler:     handlers.NewUserHandler(userService),
		TokenService:    tokens.NewTokenService(cfg.JWT.Secret),
		Metrics:         collector,
		Health: func(c *gin.Context) error {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			return mongoClient.Ping(pingCtx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
