package cli

import (
	"os"
	"os/signal"
	"syscall"

	"momentum-cli/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API for the current workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			if addr == "" {
				addr = app.cfg.Server.Addr
			}
			if app.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(st, app.logger.With("component", "server", "workspace", app.Workspace))
			srv.TimelineLimit = app.cfg.Timeline.DefaultLimit
			if err := srv.Run(ctx, addr); err != nil {
				return writeErr(cmd, app, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("MOMENTUM_ADDR", ""), "Listen address (default from config, 127.0.0.1:7410)")
	return cmd
}
