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
	"github.com/labstack/echo/v4/middleware"

	"github.com/kickylau/DOPE/internal/config"
	"github.com/kickylau/DOPE/internal/es"
	"github.com/kickylau/DOPE/internal/events"
	"github.com/kickylau/DOPE/internal/handlers"
	"github.com/kickylau/DOPE/internal/httperr"
	"github.com/kickylau/DOPE/internal/logging"
	"github.com/kickylau/DOPE/internal/middleware/csrf"
	loggingmw "github.com/kickylau/DOPE/internal/middleware/logging"
	"github.com/kickylau/DOPE/internal/session"
	httpserver "github.com/kickylau/DOPE/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if configuration.JWT_SECRET == "" {
		log.Fatal("missing required env JWT_SECRET")
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	var cafeIndex *es.CafeIndex
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init failed: %v", err)
		}
		cafeIndex = es.NewCafeIndex(esClient)
	} else {
		logger.Warn("ES_URL not set, cafe search disabled")
	}

	sess := &session.Service{
		DB:     db,
		Secret: []byte(configuration.JWT_SECRET),
		Secure: configuration.Production(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httperr.Handler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:            configuration.Production(),
		EnforceSameOrigin: configuration.Production(),
	}))

	deps := httpserver.Deps{
		DB:             db,
		Session:        sess,
		UserHandler:    &handlers.UserHandler{DB: db, Session: sess, Producer: producer},
		SessionHandler: &handlers.SessionHandler{DB: db, Session: sess, Producer: producer},
		CafeHandler:    &handlers.CafeHandler{DB: db, Producer: producer, Index: cafeIndex},
		ReviewHandler:  &handlers.ReviewHandler{DB: db, Producer: producer},
		SearchHandler:  &handlers.SearchHandler{Index: cafeIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", configuration.PORT)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
