package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"artesanato-catalog/internal/api"
	"artesanato-catalog/internal/catalog"
	"artesanato-catalog/internal/config"
	"artesanato-catalog/internal/logging"
	"artesanato-catalog/internal/render"
	"artesanato-catalog/internal/store"
	"artesanato-catalog/internal/storefront"
)

const (
	defaultAppName = "ArtesanatoCatalog" // App name for logger
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: variables may come from the environment.
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		AppName: defaultAppName,
		Mode:    cfg.AppEnv,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("Configuration loaded",
		zap.String("app_env", cfg.AppEnv),
		zap.String("log_level", cfg.LogLevel),
		zap.String("storage", cfg.Storage.Driver))

	// --- Snapshot Storage ---
	kv, err := store.Open(context.Background(), cfg.Storage.StoreOptions())
	if err != nil {
		logger.Fatal("Failed to open snapshot storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	logger.Info("Snapshot storage opened", zap.String("driver", cfg.Storage.Driver))

	catalogStore := catalog.NewStore(kv)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Storage.ConnectTimeout)
	products, err := catalogStore.Load(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Fatal("Failed to load catalog snapshot", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("products", len(products)))

	// --- Initialize Handlers ---
	locale, _ := cfg.Catalog.LocaleTag() // validated by config.Load
	renderer, err := render.New(locale)
	if err != nil {
		logger.Fatal("Failed to parse page templates", zap.Error(err))
	}
	controller := catalog.NewController(catalogStore, catalog.NewImageEncoder(cfg.Catalog.MaxPhotoBytes), logger.Named("controller"))
	sessions := storefront.NewSessions([]byte(cfg.Storefront.SessionSecret))

	pageHandler := api.NewPageHandler(controller, renderer, sessions, cfg.Catalog.MaxPhotoBytes, logger.Named("pages"))
	httpAPIHandler := api.NewHTTPHandler(catalogStore, cfg.Catalog.MaxPhotoBytes, logger.Named("api"))

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	api.RegisterHealthCheck(httpRouter, defaultAppName, catalogStore, logger)
	httpAPIHandler.RegisterRoutes(httpRouter)
	pageHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer, healthServer := api.NewGRPCServer(logger.Named("grpc"))
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go api.WatchStorageHealth(watchCtx, healthServer, catalogStore, 15*time.Second, logger.Named("health"))

	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatal("gRPC server Serve error", zap.Error(err))
		}
		logger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, func() {
		stopWatch()
		healthServer.Shutdown()
	}, kv, shutdownComplete)

	<-shutdownComplete // Block until graceful shutdown is complete
	logger.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger(logger.Named("http")))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second)) // Default timeout for requests
	logger.Info("Base HTTP middleware registered")
}

func waitForShutdown(
	logger *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	stopHealth func(),
	kv store.KeyValueStorer,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("Received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Health clients see NOT_SERVING while in-flight RPCs drain.
	stopHealth()

	logger.Info("Attempting to gracefully shut down gRPC server")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Info("Attempting to gracefully shut down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	// Last, so no handler writes a snapshot into a closed medium.
	if err := kv.Close(); err != nil {
		logger.Warn("Error closing snapshot storage", zap.Error(err))
	}

	logger.Info("Graceful shutdown sequence completed")
}
