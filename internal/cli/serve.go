package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mathrouter/mathrouter/internal/server"
)

func newServeCmd(flags *GlobalFlags) *cobra.Command {
	var (
		port int
		host string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := map[string]any{}
			if cmd.Flags().Changed("port") {
				overrides["server.port"] = port
			}
			if cmd.Flags().Changed("host") {
				overrides["server.host"] = host
			}
			cfg, err := loadConfig(flags, overrides)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := server.New(cfg.Server, a.serverDeps())
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
