package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vetgate/internal/application/roster"
	"github.com/vetgate/internal/config"
	"github.com/vetgate/internal/infrastructure/discord"
	"github.com/vetgate/internal/infrastructure/dynamo"
	"github.com/vetgate/internal/infrastructure/sheets"
	"github.com/vetgate/internal/infrastructure/smtp"
	"github.com/vetgate/internal/infrastructure/sns"
	transporthttp "github.com/vetgate/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Webhook signature key. Without it the interactions endpoint refuses
	// all traffic, so treat a malformed value as fatal.
	var publicKey ed25519.PublicKey
	if cfg.DiscordPublicKey != "" {
		raw, err := hex.DecodeString(cfg.DiscordPublicKey)
		if err != nil || len(raw) != ed25519.PublicKeySize {
			log.Fatalf("invalid DISCORD_PUBLIC_KEY: %v", err)
		}
		publicKey = ed25519.PublicKey(raw)
	} else {
		log.Println("WARN: DISCORD_PUBLIC_KEY not set, interactions endpoint disabled")
	}

	// Spreadsheet access (optional — roster checks report unavailable
	// until a service-account key is configured).
	var fetcher roster.ColumnFetcher
	if pem, err := os.ReadFile(cfg.GooglePrivateKeyPath); err == nil {
		cred, err := sheets.NewCredential(cfg.GoogleServiceAccountEmail, pem, cfg.GoogleTokenURL)
		if err != nil {
			log.Fatalf("loading service-account credential: %v", err)
		}
		client, err := sheets.NewClient(context.Background(), cred)
		if err != nil {
			log.Fatalf("creating sheets client: %v", err)
		}
		fetcher = client
	} else {
		log.Printf("WARN: service-account key not available: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS verified-event publisher (optional — graceful fallback).
	var publisher sns.EventPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		publisher = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		SettingRepo:  dynamo.NewSettingRepo(dynamoClient, cfg.DynamoTables.Settings),
		PasscodeRepo: dynamo.NewPasscodeRepo(dynamoClient, cfg.DynamoTables.Passcodes),
		Discord:      discord.NewClient(cfg),
		Sheets:       fetcher,
		Mailer:       mailer,
		Publisher:    publisher,
		PublicKey:    publicKey,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
