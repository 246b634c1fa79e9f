package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ecoregistry/internal/platform/httpserver"
	"ecoregistry/internal/platform/metrics"
	httptransport "ecoregistry/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command.
func ServeCmd(rt *runtime) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only JSON mirrors of the validated dataset",
		Long: `Validate the dataset and, if it passes, serve:
  GET /api/projects        full dataset
  GET /api/projects/{id}   one record
  GET /api/meta            aggregate counts
  GET /healthz, /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			log := rt.log()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, closeStore, err := rt.openStore(ctx, "")
			if err != nil {
				return err
			}
			defer closeStore()

			res, _, err := validateStored(ctx, st)
			if err != nil {
				return err
			}
			if !res.Valid {
				printErrors(cmd.ErrOrStderr(), res.Errors)
				return fmt.Errorf("refusing to serve invalid dataset: %d error(s)", len(res.Errors))
			}

			handler := httptransport.NewProjectsHandler(st, log)
			router := httptransport.NewRouter(handler, metrics.New(prometheus.DefaultRegisterer), log)
			return httpserver.Run(ctx, httpserver.New(addr, router), log, shutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
