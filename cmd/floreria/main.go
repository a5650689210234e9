// ABOUTME: Entry point for the floreria storefront server
// ABOUTME: Provides serve, init, bootstrap, and seed subcommands

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/floreria/margarita/internal/config"
	"github.com/floreria/margarita/internal/session"
	"github.com/floreria/margarita/internal/store"
	"github.com/floreria/margarita/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
   __ _                     _
  / _| | ___  _ __ ___ _ __(_) __ _
 | |_| |/ _ \| '__/ _ \ '__| |/ _' |
 |  _| | (_) | | |  __/ |  | | (_| |
 |_| |_|\___/|_|  \___|_|  |_|\__,_|
`

// getConfigPath returns the path to the config file.
// Priority: FLORERIA_CONFIG env var > XDG_CONFIG_HOME/floreria/floreria.yaml > ~/.config/floreria/floreria.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FLORERIA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "floreria.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "floreria", "floreria.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: floreria <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                       Start the shop server")
		fmt.Println("  init                        Write a starter config file")
		fmt.Println("  bootstrap --email ADDR      Create the initial admin account")
		fmt.Println("  seed --file catalog.toml    Load categories and products")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap":
		err = runBootstrap(ctx)
	case "seed":
		err = runSeed(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	magenta := color.New(color.FgMagenta)
	magenta.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Uploads:  %s\n", cfg.Uploads.Dir)
	fmt.Println()

	logger.Info("starting floreria",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	sessions := session.NewManager(st, cfg.Sessions.TTL)
	sessions.StartCleanup(ctx, 10*time.Minute)

	server := web.NewServer(st, sessions, web.Config{
		ShopName:      cfg.Shop.Name,
		RPDisplayName: cfg.Shop.RPDisplayName,
		UploadsDir:    cfg.Uploads.Dir,
	})
	defer server.Close()

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

const starterConfig = `server:
  http_addr: ":3000"
  base_url: "http://localhost:3000"

database:
  path: "data/floreria.db"

uploads:
  dir: "data/img"

sessions:
  ttl: "1h"

logging:
  level: "info"
  format: "text"

shop:
  name: "Florería Margarita"
  rp_display_name: "Florería Margarita"
`

func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", configPath)
	return nil
}

func runBootstrap(ctx context.Context) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	email := fs.String("email", "", "admin email address")
	name := fs.String("name", "Admin", "admin display name")
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	acct := &store.Account{
		ID:           uuid.NewString(),
		Name:         *name,
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: string(hash),
		Role:         store.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return fmt.Errorf("an account with that email already exists")
		}
		return fmt.Errorf("creating admin: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Created admin account %s\n", acct.Email)
	fmt.Println("Log in at /admin/login and enroll a passkey from the dashboard.")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
