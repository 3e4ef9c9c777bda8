package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	api "github.com/testifyhub/testifyhub/internal/api/http"
	"github.com/testifyhub/testifyhub/internal/analytics"
	"github.com/testifyhub/testifyhub/internal/auth"
	"github.com/testifyhub/testifyhub/internal/config"
	"github.com/testifyhub/testifyhub/internal/db"
	"github.com/testifyhub/testifyhub/internal/rbac"
	"github.com/testifyhub/testifyhub/internal/submission"
	"github.com/testifyhub/testifyhub/internal/testbank"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gateway",
		Short: "TestifyHub assessment API server",
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
	f.String("db-dsn", "", "Database DSN (driver default when empty)")
	f.String("jwt-secret", "", "HMAC secret for access tokens (required)")
	f.Duration("token-ttl", 8*time.Hour, "Access token lifetime")
	f.StringSlice("cors-origins", []string{"http://localhost:5173"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin user if no users exist",
		RunE:  runSeed,
	}
	f := cmd.Flags()
	f.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
	f.String("db-dsn", "", "Database DSN (driver default when empty)")
	f.String("admin-name", "Administrator", "Admin display name")
	f.String("admin-email", "admin@testifyhub.local", "Admin email")
	f.String("admin-password", "", "Admin password (or set TESTIFYHUB_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TESTIFYHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("testifyhub")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/testifyhub")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	cfg := config.FromViper(v)

	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required: set --jwt-secret or TESTIFYHUB_JWT_SECRET")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbh.Close()

	tests := testbank.NewSQLStore(dbh)
	results := submission.NewSQLStore(dbh)
	engine := submission.NewEngine(tests, results, nil)

	r := api.NewRouter(api.Deps{
		Auth:        auth.NewService(cfg.JWTSecret, cfg.TokenTTL),
		Users:       auth.NewUserStore(dbh),
		Tests:       tests,
		Engine:      engine,
		Analytics:   analytics.NewAggregator(dbh),
		CORSOrigins: cfg.CORSOrigins,
	})

	slog.Info("starting server", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver)
	return http.ListenAndServe(cfg.HTTPAddr, r)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	password := v.GetString("admin-password")
	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password or TESTIFYHUB_ADMIN_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(v.GetString("db-driver")), v.GetString("db-dsn"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer dbh.Close()

	users := auth.NewUserStore(dbh)
	count, err := users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		slog.Info("users already exist, nothing to seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	u, err := users.CreateUser(ctx, auth.User{
		Name:         v.GetString("admin-name"),
		Email:        v.GetString("admin-email"),
		PasswordHash: string(hash),
		Role:         rbac.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("seeded admin user", "email", u.Email)
	return nil
}
