package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskflow/internal/app"
	"taskflow/internal/logger"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := app.New(cfg)
			defer a.Close()
			if err := a.Init(ctx); err != nil {
				return err
			}
			if err := a.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("App: Stopped with error", err)
				return err
			}
			logger.Info("App: Stopped")
			return nil
		},
	}
	cmd.Flags().String("port", "", "port to listen on")
	return cmd
}

func initApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Reminders.Enabled = false
	a := app.New(cfg)
	if err := a.Init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
