package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"petsnapshot/internal/app"
	"petsnapshot/internal/config"
	"petsnapshot/internal/domain"
	"petsnapshot/internal/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitPartial = 3
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "petsnapshot",
	Short:         "petsnapshot collects daily Petfinder animal and organization snapshots.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $PETSNAPSHOT_CONFIG)")
}

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(os.Stderr, exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintln(os.Stderr, err)
	return exitFailure
}

// exitCodeFor maps a run status to the process exit code.
func exitCodeFor(status domain.RunStatus) int {
	switch status {
	case domain.RunComplete:
		return exitOK
	case domain.RunPartial:
		return exitPartial
	default:
		return exitFailure
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(), nil
}

func newApplication(ctx context.Context, validate bool) (*app.Application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(ctx, cfg, logger)
}
