package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stijnvanbael/redstone/config"
	"github.com/stijnvanbael/redstone/server"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var dotEnvPath string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a Redstone server",
		Long:  "Load the configuration, build the dispatcher and serve until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, dotEnvPath, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")
	cmd.Flags().StringVarP(&dotEnvPath, "dotenv", "e", ".env", ".env file path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload configuration on file changes")

	return cmd
}

func runServe(configPath, dotEnvPath string, watch bool) error {
	loader := config.NewLoader().
		WithYAMLFile(configPath).
		WithDotEnvFile(dotEnvPath)

	cfg := &config.Config{}
	if err := loader.Load(cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := config.BuildLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	srv, err := server.New(
		server.WithConfig(cfg),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if watch {
		watcher, err := config.NewWatcher(configPath, loader, func(next *config.Config) {
			logger.Info("configuration changed; restart to apply server settings")
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to watch configuration: %w", err)
		}
		defer watcher.Close()
	}

	// Serve until interrupted.
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		return srv.Shutdown(context.Background())
	}
}
