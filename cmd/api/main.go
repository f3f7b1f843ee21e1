package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/harikv/moviegate/internal/bot"
	"github.com/harikv/moviegate/internal/http/handlers"
	imw "github.com/harikv/moviegate/internal/http/middleware"
	"github.com/harikv/moviegate/internal/repo/mongodb"
	"github.com/harikv/moviegate/internal/shortlink"
	"github.com/harikv/moviegate/internal/storage"
	"github.com/harikv/moviegate/internal/verification"
	"github.com/harikv/moviegate/pkg/config"
	"github.com/harikv/moviegate/pkg/events"
	"github.com/harikv/moviegate/pkg/logger"
	mw "github.com/harikv/moviegate/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	mongo, err := storage.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(shutdownCtx)
	}()

	// Event bus (optional)
	var bus events.EventBus = events.NopBus{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	}
	defer bus.Close()

	// Rate limiter (optional)
	var limiter *imw.RateLimiter
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		limiter = imw.NewRateLimiter(redis.NewClient(opt), 30, time.Minute, "moviegate:rl")
	}

	// Repositories
	movieRepo := mongodb.NewMovieRepo(mongo)
	accessRepo := mongodb.NewAccessRepo(mongo)
	tokenRepo := mongodb.NewTokenRepo(mongo)
	sessionRepo := mongodb.NewSessionRepo(mongo)

	// Core services
	shortener := shortlink.NewClient(cfg.Shortlink.APIURL, cfg.Shortlink.APIKey, cfg.Shortlink.Timeout)
	gate := verification.New(accessRepo, tokenRepo, shortener, bus, cfg.Verification, cfg.Server.BaseURL)
	janitor := verification.NewJanitor(tokenRepo, sessionRepo, time.Hour)

	// Handlers
	siteHandler := handlers.NewSiteHandler(movieRepo, gate, cfg.Verification.TutorialLink)
	adminHandler := handlers.NewAdminHandler(movieRepo, bus, cfg.Admin)

	// Telegram bot (optional)
	var (
		tgBot *bot.Bot
		tgAPI *tgbotapi.BotAPI
	)
	if cfg.Telegram.BotToken != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Error("Failed to connect to Telegram", "error", err)
			os.Exit(1)
		}
		tgAPI = api
		tgBot = bot.New(api, movieRepo, sessionRepo, gate, bus, cfg.Telegram.AdminIDs, cfg.Verification.TutorialLink)

		if cfg.Telegram.WebhookURL != "" {
			wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL + "/api/webhook")
			if err == nil {
				_, err = api.Request(wh)
			}
			if err != nil {
				logger.Error("Failed to set Telegram webhook", "error", err)
				os.Exit(1)
			}
		}
	}

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(imw.VisitorIdentity)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","bot":"movie-bot"}`))
	})

	var rateLimit func(http.Handler) http.Handler
	if limiter != nil {
		rateLimit = limiter.Middleware
	}
	r.Mount("/", siteHandler.Routes(rateLimit))
	r.Mount("/admin", adminHandler.Routes())

	if tgBot != nil {
		webhookHandler := handlers.NewWebhookHandler(tgBot)
		r.Post("/api/webhook", webhookHandler.Handle)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := janitor.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	if tgBot != nil && cfg.Telegram.WebhookURL == "" {
		g.Go(func() error {
			if err := tgBot.Run(ctx, tgAPI); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Service error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
