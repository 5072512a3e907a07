package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mindspend/mindspend-api/config"
	"github.com/mindspend/mindspend-api/handlers"
	"github.com/mindspend/mindspend-api/migration"
	"github.com/mindspend/mindspend-api/routes"
	"github.com/mindspend/mindspend-api/services"
	"github.com/mindspend/mindspend-api/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	utils.ConfigureLogging(cfg.Production, cfg.LogLevel)
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.LogStartup("MindSpend API", handlers.Version, cfg.Port, cfg.DataBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer st.Close(context.Background())

	if cfg.BackfillOnStart {
		if _, err := migration.BackfillExpenseTypes(ctx, st); err != nil {
			log.Printf("❌ Expense backfill failed: %v", err)
		}
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		log.Println("⚠️ JWT_SECRET not set, using an insecure development secret")
		jwtSecret = "mindspend-dev-secret"
	}
	tokens := utils.NewTokenManager(jwtSecret, cfg.JWTTTL)

	// Alert channels
	wsHandler := handlers.NewWSHandler()
	defer wsHandler.Close()

	mailer := services.NewMailer(cfg.EmailProvider, cfg.ResendAPIKey, cfg.SendGridAPIKey, cfg.FromEmail)
	notifier := services.NewMultiNotifier().
		Add("email", services.NewEmailNotifier(mailer, cfg.FrontendURL)).
		Add("websocket", wsHandler)

	if cfg.AMQPURL != "" {
		publisher, err := services.NewAlertPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Printf("⚠️ AMQP unavailable, alert events will not be published: %v", err)
		} else {
			defer publisher.Close()
			notifier.Add("amqp", publisher)
			log.Printf("✅ AMQP connected (exchange %s, queue %s)", cfg.AMQPExchange, cfg.AMQPQueue)
		}
	}

	var cooldown services.Cooldown = services.NewMemoryCooldown()
	redisClient, err := config.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("⚠️ Redis unavailable, alert cooldown kept in memory: %v", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		cooldown = services.NewRedisCooldown(redisClient)
	}

	alerts := services.NewAlertService(st, services.AlertConfig{
		Thresholds:    cfg.AlertThresholds,
		BudgetPercent: cfg.BudgetAlertPercent,
		Cooldown:      cfg.AlertCooldown,
	}, notifier, cooldown)

	var seeder *services.Seeder
	if cfg.SeedSampleData {
		seeder = services.NewSeeder(st, st)
	}

	router := routes.NewRouter(&routes.Handlers{
		Tokens:   tokens,
		Auth:     handlers.NewAuthHandler(services.NewAuthService(st, tokens, seeder, cfg.DataEncryptionKey)),
		Budgets:  handlers.NewBudgetHandler(services.NewBudgetService(st, alerts)),
		Expenses: handlers.NewExpenseHandler(services.NewExpenseService(st, alerts)),
		Stats:    handlers.NewStatsHandler(services.NewStatsService(st), st),
		WS:       wsHandler,
	}, routes.Options{
		AllowedOrigins: []string{cfg.FrontendURL},
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
	log.Println("✅ Server stopped")
}
