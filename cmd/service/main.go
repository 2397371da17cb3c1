package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/s21platform/chat-sync/internal/client/centrifugo"
	"github.com/s21platform/chat-sync/internal/config"
	"github.com/s21platform/chat-sync/internal/infra"
	"github.com/s21platform/chat-sync/internal/pkg/jwt"
	"github.com/s21platform/chat-sync/internal/pkg/validator"
	"github.com/s21platform/chat-sync/internal/repository/memory"
	db "github.com/s21platform/chat-sync/internal/repository/postgres"
	"github.com/s21platform/chat-sync/internal/rest"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	var repo rest.DBRepo
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		memRepo := memory.New()
		defer memRepo.Close()
		repo = memRepo
	default:
		dbRepo := db.New(cfg)
		defer dbRepo.Close()
		repo = dbRepo
	}

	centrifugeClient := centrifugo.New(cfg)
	defer centrifugeClient.Close()
	if !centrifugeClient.Enabled() {
		logger.Warn("centrifugo is not configured, realtime publishing disabled")
	}

	vldtr := validator.New()
	jwtGenerator := jwt.New(cfg.Centrifuge.JWTSecret)

	handler := rest.New(repo, centrifugeClient, vldtr, jwtGenerator)
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", infra.HeaderUserID},
		MaxAge:         300,
	}))
	router.Use(infra.MetricsHTTP)
	router.Use(func(next http.Handler) http.Handler {
		return infra.LoggerHTTP(next, logger)
	})

	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(infra.AuthInterceptorHTTP)
		handler.Register(r)
	})

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Service.Port))
	if err != nil {
		logger.Error(fmt.Sprintf("failed to start TCP listener: %v", err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(fmt.Sprintf("listening on %s", listener.Addr()))
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("server error: %v", err))
	}
}
