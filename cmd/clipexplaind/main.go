package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/internal/discovery"
	srv "github.com/clipexplain/clipexplain/internal/server"
	"github.com/clipexplain/clipexplain/internal/telemetry"
	"github.com/clipexplain/clipexplain/models"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{Use: "clipexplaind"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if serveAddr == "" {
				serveAddr = os.Getenv("CLIPEXPLAIN_HTTP_ADDR")
			}
			return srv.Run(cfg, serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to server.address)")

	var title, content, convContext string
	var discover = &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery request and print the bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			tele := telemetry.New(cfg.Telemetry)
			engine := discovery.NewEngine(cfg, nil, nil, tele, nil)

			bundle := engine.Discover(cmd.Context(), models.DiscoverInput{
				Title:               title,
				Content:             content,
				ConversationContext: convContext,
			})
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(bundle)
		},
	}
	discover.Flags().StringVar(&title, "title", "", "content title")
	discover.Flags().StringVar(&content, "content", "", "video content or transcript excerpt")
	discover.Flags().StringVar(&convContext, "context", "", "conversation context")

	var migDir string
	var direction string
	var steps int
	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			dsn := cfg.Storage.Postgres.DSN()
			if dsn == "" {
				dsn = os.Getenv("DATABASE_URL")
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrateCmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source (file://migrations)")
	migrateCmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrateCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	var tokenSubject string
	var tokenTTL time.Duration
	var token = &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT for API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			if cfg.Server.JWTSecret == "" {
				return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
			}
			signed, err := srv.SignJWT(tokenSubject, []byte(cfg.Server.JWTSecret), tokenTTL)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	token.Flags().StringVar(&tokenSubject, "subject", "cli", "token subject")
	token.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	root.AddCommand(serve, discover, migrateCmd, token)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
