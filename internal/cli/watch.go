package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/harun/llmfunctions/internal/observability"
	"github.com/harun/llmfunctions/pkg/registrar"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"github.com/spf13/cobra"
)

var (
	watchDebounce    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-register tools whenever the functions directory changes",
	Long: `Run a registration pass, then watch functions.json and the tools directory
and run a new pass after every change until interrupted. With --metrics-addr
the Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", registrar.DefaultDebounce, "quiet period before a change triggers a pass")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	reg := newRegistrar()
	report := func(tools []*toolexecutor.ToolWrapper) {
		names := make([]string, 0, len(tools))
		for _, tool := range tools {
			names = append(names, tool.Name())
		}
		appLogger.Info().Int("count", len(tools)).Strs("tools", names).Msg("Registered tools")
	}

	report(reg.Tools())

	watcher, err := registrar.NewManifestWatcher(registrar.WatcherConfig{
		Registrar: reg,
		Debounce:  watchDebounce,
		OnChange:  report,
	}, appLogger.GetZerolog())
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	if watchMetricsAddr != "" {
		server := startMetricsServer(watchMetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				appLogger.Warn().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	<-cmd.Context().Done()
	appLogger.Info().Msg("Stopping watcher")
	return nil
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	appLogger.Info().Str("addr", addr).Msg("Serving metrics")
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return server
}
