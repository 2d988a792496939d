package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harun/llmfunctions/internal/config"
	"github.com/harun/llmfunctions/internal/logger"
	"github.com/harun/llmfunctions/internal/tracing"
	"github.com/harun/llmfunctions/pkg/registrar"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string

	appConfig *config.Config
	appLogger *logger.Logger

	// loadOptions reads the process environment; tests replace it
	loadOptions = config.FromEnvironment
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "llm-functions",
	Short: "llm-functions - expose functions directory tools to LLM hosts",
	Long: `llm-functions registers the tools described by a functions.json manifest
and runs them as subprocesses with bounded time and output.
Each tool is an executable script under <functions_directory>/tools.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracing.InitOpenTelemetry("llm-functions"); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.ShutdownOpenTelemetry(shutdownCtx)
	}()

	err := rootCmd.ExecuteContext(ctx)
	if appLogger != nil {
		_ = appLogger.Close()
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/io.datasette.llm/llm-functions.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// setup loads the configuration and installs the logger before any
// subcommand runs. An explicit --log-level wins over the config file.
func setup(cmd *cobra.Command, args []string) error {
	opts := loadOptions()
	if cfgFile != "" {
		opts.ConfigPath = cfgFile
	}

	cfg := config.Load(opts)
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	if appLogger != nil {
		_ = appLogger.Close()
	}

	l, err := logger.New(logger.Config{
		Level:          cfg.Logging.Level,
		File:           cfg.Logging.File,
		Console:        true,
		Pretty:         cfg.Logging.Pretty,
		Redaction:      cfg.Logging.Redaction,
		RedactPatterns: cfg.Logging.RedactPatterns,
		Out:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	appConfig = cfg
	appLogger = l
	return nil
}

func newRegistrar() *registrar.Registrar {
	return registrar.New(appConfig.RegistrarOptions(), appLogger.GetZerolog())
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
