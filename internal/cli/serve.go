package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mkoseki/techo/internal/api"
	"github.com/mkoseki/techo/internal/config"
	"github.com/mkoseki/techo/internal/db"
	"github.com/mkoseki/techo/internal/db/driver"
)

// newServeCmd creates the serve command for the API server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the techo API server.

The server provides REST endpoints for every organizer resource and a
WebSocket feed of change events at /ws.

Example:
  techo serve              # Start on the configured port (default 8390)
  techo serve --port 3000  # Start on a custom port`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}

			logger := newLogger(cfg)

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			server := api.New(&api.Config{
				Addr:   cfg.Server.Addr(),
				Logger: logger,
			}, database)

			fmt.Printf("Starting techo on %s\n", cfg.Server.Addr())
			fmt.Println("Press Ctrl+C to stop")

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.StartContext(ctx)
			})
			g.Go(func() error {
				select {
				case <-sigCh:
					fmt.Println("\nShutting down...")
					cancel()
				case <-ctx.Done():
				}
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().IntP("port", "p", 8390, "port to listen on")

	return cmd
}

// openDatabase opens the store named by config, creating the sqlite
// directory on first run. Migrations apply on open.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	switch cfg.Database.Dialect {
	case "postgres":
		return db.OpenWithDialect(cfg.Database.DSN, driver.DialectPostgres)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return db.Open(cfg.Database.Path)
	}
}
