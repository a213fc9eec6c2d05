package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"privacy-checkout/internal/attribution"
	"privacy-checkout/internal/client"
	"privacy-checkout/internal/config"
	"privacy-checkout/internal/customer"
	"privacy-checkout/internal/logger"
	"privacy-checkout/internal/repository"
	"privacy-checkout/internal/server"
	"privacy-checkout/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, "privacy-api")
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	gateway, err := client.NewPaymentGateway(cfg)
	if err != nil {
		log.Fatalf("init payment gateway: %v", err)
	}

	var attributionClient client.AttributionClient
	if cfg.Utmify.APIToken != "" {
		attributionClient = client.NewUtmifyClient(&cfg.Utmify)
	} else {
		log.Warn("UTMIFY_API_TOKEN not set, attribution events will only be logged")
		attributionClient = attribution.NewLogOnlyClient(log)
	}
	forwarder := attribution.NewAsyncForwarder(attributionClient, log, attribution.Options{
		QueueSize:       cfg.Utmify.QueueSize,
		DeliveryTimeout: cfg.Utmify.Timeout,
	})
	forwarder.Start()

	webhookReceiptRepo := repository.NewWebhookReceiptRepository(db)

	pixService := service.NewPixService(
		gateway,
		customer.NewSelector(),
		forwarder,
		log,
		service.WithPlatform(cfg.Utmify.Platform),
		service.WithTestMode(cfg.Utmify.IsTest),
	)
	webhookService := service.NewWebhookService(webhookReceiptRepo, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(pixService, webhookService, log)

	log.Infof("Starting HTTP server on %s (gateway %s, env %s)", serverAddr, gateway.Name(), cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	if err := forwarder.Close(shutdownCtx); err != nil {
		log.Errorf("attribution forwarder did not drain: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
