package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"arenaserver/api"
	"arenaserver/app"
	"arenaserver/config"
	"arenaserver/database"
	"arenaserver/events"
	"arenaserver/notifier"
	"arenaserver/repository"
	"arenaserver/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting arena server...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	ledgerService := service.NewLedgerService(uowFactory)
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	matchmakingService := service.NewMatchmakingService(uowFactory, cfg.CommissionRate)
	matchResultService := service.NewMatchResultService(uowFactory)
	payoutService := service.NewPayoutService(uowFactory, cfg.RatingWinDelta, cfg.RatingLossDelta)
	referralService := service.NewReferralService(uowFactory, cfg.ReferralBonusRate)
	walletService := service.NewWalletService(uowFactory, ledgerService)
	log.Println("Services initialized successfully")

	// Initialize the live-update fanout when Redis is configured
	var fanout *notifier.Notifier
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		fanout, err = notifier.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Println("Redis connection established successfully")
	}

	// Wire committed events to their follow-up actions
	app.Subscribe(eventBus, app.Services{
		Matchmaking: matchmakingService,
		Payout:      payoutService,
		Referral:    referralService,
	}, fanout)

	// Start the matchmaker sweep worker
	worker := app.NewMatchmakerWorker(uowFactory, matchmakingService,
		time.Duration(cfg.MatchmakerPollSeconds)*time.Second)
	go worker.Start(ctx)

	// Start the HTTP server
	jwtService := api.NewJWTService(cfg.JWTSecret)
	handler := api.NewHandler(userService, matchmakingService, matchResultService, walletService, jwtService)
	router := api.NewRouter(handler, jwtService, cfg.Environment)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}
	go func() {
		log.Printf("Server listening on %s in %s mode...", cfg.ListenAddr, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if fanout != nil {
		if err := fanout.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
