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
	"property_bot/internal/app"
	"property_bot/internal/shared"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// deps
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

	// http
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := server.New(cfg.FetchTimeout + 5*time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: svc})
	httpSrv := &http.Server{Addr: addr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shCtx)
	}()

	log.Info().Str("addr", addr).Str("properties", cfg.PropertiesURL).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
