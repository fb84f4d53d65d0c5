// Command mktoken mints a bearer token for the routing service. Operators
// run it with the same configuration as the server so the secret matches.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/llm-router/router/internal/auth"
	"github.com/llm-router/router/internal/config"
)

func main() {
	subject := flag.String("subject", "", "token subject (required)")
	flag.Parse()

	if *subject == "" {
		log.Fatal("usage: mktoken -subject <name>")
	}

	_ = godotenv.Load()

	if err := config.InitDefault(); err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()
	if cfg == nil || cfg.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret is not configured")
	}

	token, err := auth.NewService(&cfg.Auth).GenerateToken(*subject)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Println(token)
}
