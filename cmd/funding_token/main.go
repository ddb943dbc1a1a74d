// Command funding_token mints a signed access token for local development.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/org_funding_app/internal/platform/config"
	"github.com/SscSPs/org_funding_app/internal/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	userID := flag.String("user", "", "user ID (token subject)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", "MEMBER", "role: SUPER_ADMIN, ADMIN, MEMBER or READONLY")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		logger.Error("-user is required")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction {
		logger.Error("Refusing to mint tokens with production configuration")
		os.Exit(1)
	}

	token, err := utils.GenerateJWT(*userID, *name, *role, cfg.JWTSecret, *ttl, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Failed to generate token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
