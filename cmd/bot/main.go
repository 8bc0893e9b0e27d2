package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"property_bot/internal/adapters/chart"
	server "property_bot/internal/adapters/http_server"
	"property_bot/internal/adapters/mockapi"
	"property_bot/internal/adapters/observability"
	redisad "property_bot/internal/adapters/redis"
	"property_bot/internal/adapters/telegram"
	"property_bot/internal/app"
	"property_bot/internal/domain"
	"property_bot/internal/shared"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.TelegramToken == "" {
		log.Fatal().Err(&shared.ConfigError{Key: "TELEGRAM_TOKEN", Reason: "required"}).Msg("invalid configuration")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("properties", cfg.PropertiesURL).
		Bool("complaints", cfg.ComplaintsURL != "").
		Int("workers", cfg.Workers).
		Msg("bot starting")

	client := mockapi.New(mockapi.Options{
		KeyHeader: cfg.APIKeyHeader,
		KeyValue:  cfg.APIKeyValue(),
		Timeout:   cfg.FetchTimeout,
		RPS:       cfg.FetchRPS,
	})
	svc := app.NewPropertyService(client, chart.New(), app.Endpoints{
		Properties: cfg.PropertiesURL,
		Complaints: cfg.ComplaintsURL,
	})

	tg, err := telegram.NewClient(telegram.ClientOptions{Token: cfg.TelegramToken, PollTimeout: cfg.PollTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Telegram client")
	}

	var offsets domain.OffsetStore
	if cfg.RedisAddr != "" {
		store := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, keeping poll offset in memory")
		} else {
			offsets = store
			defer store.Close()
		}
		cancel()
	}

	if cfg.HTTPAddr != "" {
		srv := server.New(cfg.FetchTimeout + 5*time.Second)
		reg := observability.InitRegistry()
		srv.Mount("/metrics", observability.MetricsHandler(reg))
		srv.MountHandlers(&server.Handlers{S: svc})
		httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("ops server listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops server failed")
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shCtx)
		}()
	}

	router := telegram.NewRouter(svc, tg, cfg.MaxMessageLen)
	bot := telegram.NewBot(tg, router, telegram.BotOptions{
		Workers:       cfg.Workers,
		UpdateTimeout: 2*cfg.FetchTimeout + 30*time.Second,
		Offsets:       offsets,
	})
	if err := bot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("bot stopped")
}
