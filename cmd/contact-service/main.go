package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "pentamaths/cmd/contact-service/docs"
	"pentamaths/internal/config"
	"pentamaths/internal/constants"
	"pentamaths/internal/logger"
	"pentamaths/pkg/logging"
)

var (
	configFile string
)

// @title           Pentamaths Contact Service API
// @version         1.0
// @description     Contact form intake for pentamaths.sg: spam filtering, reCAPTCHA Enterprise scoring and email delivery.

// @contact.name   Pentamaths
// @contact.url    https://pentamaths.sg
// @contact.email  ask@pentamaths.sg

// @host      localhost:8080
// @BasePath  /

// @schemes   http https

func main() {
	rootCmd := &cobra.Command{
		Use:   constants.ServiceName,
		Short: "Contact form service for pentamaths.sg",
		Long:  "Contact Service accepts contact form submissions, screens out bots and emails genuine enquiries",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional; environment variables override it)")

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the contact service",
		RunE: func(cmd *cobra.Command, args []string) error {
			earlyLog := logging.NewEarlyLog(constants.ServiceName)

			cfg, err := config.Load(configFile)
			if err != nil {
				earlyLog.Error("Failed to load config: %v", err)
				return err
			}

			log, err := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				earlyLog.Error("Failed to init logger: %v", err)
				return err
			}
			defer log.Sync()

			if sugared, ok := log.(*logger.SugaredLogger); ok {
				sugared.SetServiceName(constants.ServiceName)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting Contact Service")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			if err := app.Run(ctx); err != nil {
				log.ErrorwCtx(ctx, "Application error", "error", err)
				return err
			}
			return nil
		},
	}
}
