package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskboard/internal/devserver"
	"taskboard/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local task server (GET/POST/PUT/DELETE /tasks)",
		Long: "Runs a development REST server backed by SQLite. It is the primary endpoint the\n" +
			"board tries in development (http://localhost:3000/tasks by default).",
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := app.cfg.Server
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sqlite, err := store.OpenSQLite(ctx, srvCfg.DBPath)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("open %s: %w", srvCfg.DBPath, err))
			}
			defer sqlite.Close()

			var rc *redis.Client
			if srvCfg.RedisAddr != "" {
				rc, err = openRedis(ctx, srvCfg.RedisAddr)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer rc.Close()
			}
			st := store.NewCache(sqlite, rc, srvCfg.RedisTTL, app.log)

			app.log.WithFields(map[string]any{
				"db":         sqlite.Path(),
				"redis":      srvCfg.RedisAddr,
				"string_ids": srvCfg.StringIDs,
			}).Info("starting task server")

			srv := devserver.New(st, devserver.Options{
				StringIDs:      srvCfg.StringIDs,
				RequestTimeout: srvCfg.RequestTimeout,
				Logger:         app.log,
			})
			if err := srv.ListenAndServe(ctx, srvCfg.Addr); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default localhost:3000)")
	cmd.Flags().String("db", "", "SQLite database path (default taskboard.sqlite)")
	cmd.Flags().String("redis", "", "Redis host:port for the list cache (optional)")
	cmd.Flags().Bool("string-ids", false, "Serialize ids as JSON strings")
	return cmd
}

func openRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr})
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return rc, nil
}
