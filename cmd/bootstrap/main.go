// Command bootstrap provisions the initial admin user. Run it once
// against a fresh database; further users are created through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
	"github.com/your-org/facegate/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, "text")

	piiKey, err := cfg.Auth.PIIKeyBytes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load pii key: %v\n", err)
		os.Exit(1)
	}
	vault, err := crypto.NewVault(piiKey, cfg.Auth.BcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create vault: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.NewPostgresStore(cfg.Database, vault)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	existing, err := db.GetUserByUsername(ctx, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "look up user: %v\n", err)
		os.Exit(1)
	}
	if existing != nil {
		fmt.Printf("user %q already exists (role %s)\n", existing.Username, existing.Role)
		return
	}

	user, err := db.CreateUser(ctx, *username, *password, models.RoleAdmin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created admin user %q (id %s)\n", user.Username, user.ID)
}
