package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/visualtest/internal/server"
	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/report"
)

// serveCommand serves a saved run report.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		reportPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Browse a saved run report over HTTP",
		Long: `Serve a JSON report written by "visualtest run --json" together with the
output and reference directories, so failures can be inspected in a browser
or fetched by other tools.`,
		Example: `  visualtest run --json report.json
  visualtest serve --report report.json --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if reportPath == "" {
				reportPath = cfg.Report.JSON
			}
			if reportPath == "" {
				return errors.New(errors.ErrCodeInvalidInput, "--report is required")
			}
			run, err := report.ReadRun(reportPath)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), addr, server.New(run, server.Options{
				OutputDir:    cfg.OutputDir,
				ReferenceDir: cfg.ReferenceDir,
				Logger:       loggerFromContext(cmd.Context()),
			}))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default "+defaultConfigFile+" if present)")
	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "JSON report to serve (default [report] json from the config)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")

	return cmd
}

// serve runs h until ctx is cancelled.
func (c *CLI) serve(ctx context.Context, addr string, h http.Handler) error {
	logger := loggerFromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printInfo("Serving report on %s", StyleLink.Render("http://"+addr))
	printNextStep("Failures", "curl http://"+addr+"/api/results?state=FAIL")

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", addr)
	case <-ctx.Done():
	}

	logger.Debug("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
