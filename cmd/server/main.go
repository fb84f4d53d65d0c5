// Package main provides the entry point for the routing service
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/llm-router/router/internal/config"
	"github.com/llm-router/router/internal/gateway"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	if err := config.InitDefault(); err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()
	if cfg == nil {
		log.Fatal("Configuration is nil")
	}

	if err := config.Default().Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build gateway: %v", err)
	}

	go func() {
		if err := gw.Start(); err != nil {
			log.Fatalf("Failed to start gateway: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gw.Stop(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
