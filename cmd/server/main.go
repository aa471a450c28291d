package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tajweer/marketplace/internal/config"
	"github.com/tajweer/marketplace/internal/es"
	"github.com/tajweer/marketplace/internal/events"
	"github.com/tajweer/marketplace/internal/handlers"
	"github.com/tajweer/marketplace/internal/logging"
	"github.com/tajweer/marketplace/internal/storage"
	"github.com/tajweer/marketplace/internal/token"
	httpserver "github.com/tajweer/marketplace/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	store, err := storage.New(cfg.UPLOAD_DIR)
	if err != nil {
		log.Fatalf("upload directory init failed: %v", err)
	}

	tokens := &token.Service{DB: db, Secret: []byte(cfg.JWT_SECRET)}

	var producer *events.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = events.NewProducer(cfg.KAFKA_ADDRESS)
	}

	var indexer *es.Indexer
	var searchHandler *handlers.SearchHandler
	if cfg.ES_URL != "" {
		esClient, err := es.NewClient(cfg, logger)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
		indexer = &es.Indexer{ES: esClient, Index: "products"}
		searchHandler = &handlers.SearchHandler{Indexer: indexer}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:             db,
		Tokens:         tokens,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		ProductHandler: &handlers.ProductHandler{DB: db, Store: store, Producer: producer, Indexer: indexer},
		CommentHandler: &handlers.CommentHandler{DB: db, Producer: producer},
		SearchHandler:  searchHandler,
		UploadDir:      store.Root(),
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + cfg.APP_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
