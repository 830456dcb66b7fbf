// Command main is the entry point for the bugbook backend server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bugbook/internal/bootstrap"
	"bugbook/internal/chat"
	"bugbook/internal/config"
	"bugbook/internal/observability"
	"bugbook/internal/server"
	"bugbook/internal/uploads"
)

// @title Bugbook API
// @version 1.0
// @description Social media backend with cookie sessions, a cursor-paginated feed, avatar uploads, and chat integration

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8480
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name auth_session

func main() {
	seedDemo := flag.Bool("seed", false, "seed demo data before starting (development only)")
	seedUsers := flag.Int("seed-users", 10, "number of demo users to seed")
	seedPosts := flag.Int("seed-posts", 100, "number of demo posts to seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "bugbook-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemoData: *seedDemo,
		SeedUsers:    *seedUsers,
		SeedPosts:    *seedPosts,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	var chatClient chat.Client
	if cfg.ChatAPIKey != "" && cfg.ChatAPISecret != "" {
		chatClient, err = chat.NewStreamClient(cfg.ChatBaseURL, cfg.ChatAPIKey, cfg.ChatAPISecret)
		if err != nil {
			log.Fatalf("Failed to create chat client: %v", err)
		}
	} else {
		log.Println("WARNING: chat credentials not configured; chat integration disabled")
	}

	storage, err := uploads.NewS3Storage(context.Background(), uploads.S3Config{
		Bucket:    cfg.UploadsBucket,
		Region:    cfg.UploadsRegion,
		Endpoint:  cfg.UploadsEndpoint,
		AccessKey: cfg.UploadsAccessKey,
		SecretKey: cfg.UploadsSecretKey,
		BaseURL:   cfg.UploadsBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create upload storage: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient, chatClient, storage)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	janitorCtx, cancelJanitor := context.WithCancel(context.Background())
	bootstrap.StartSessionJanitor(janitorCtx, db)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		cancelJanitor()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	log.Fatal(srv.Start())
}
