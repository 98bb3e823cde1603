//go:build ignore

// This script issues a bearer token for local API testing.
// Run with: go run scripts/generate-jwt.go -user 1 -role regular

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/config"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	userID := flag.Int64("user", 0, "User id carried in the token subject")
	roleName := flag.String("role", string(user.RoleRegular), "Role claim: regular, performer or admin")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	if *userID <= 0 {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	role, err := user.ParseRole(*roleName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid role: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.LoadAPIServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).SignToken(*userID, role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H \"Authorization: Bearer %s\" http://localhost:%d/users/me\n", token, cfg.Server.Port)
	fmt.Println()
	fmt.Printf("Expires: %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
}
