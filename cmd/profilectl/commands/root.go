package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/profile-crawler/internal/app"
	"github.com/user/profile-crawler/pkg/config"
	"github.com/user/profile-crawler/pkg/logger"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "profilectl",
	Short:         "profilectl runs crawls and reads the profile store without the API server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads config the same way the server does. Logs go to stderr so
// stdout stays clean for command output.
func openApp(ctx context.Context) (*app.App, *config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(os.Stderr, cfg.LogLevel)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, cfg, log, nil
}
