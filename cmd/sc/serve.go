package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/stationcall/internal/api"
	"github.com/zulandar/stationcall/internal/channel"
	"github.com/zulandar/stationcall/internal/config"
	"github.com/zulandar/stationcall/internal/db"
	"github.com/zulandar/stationcall/internal/scheduler"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the operator API and the message scheduler",
		Long:  "Starts the HTTP API and the background scheduler that dispatches due scheduled messages. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "stationcall.yaml", "path to Stationcall config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	transport := transportFromConfig(cfg)
	if transport == nil {
		fmt.Fprintln(out, "No SMTP relay configured; email sends will be recorded as delivery errors")
	}

	sched := &scheduler.Scheduler{
		DB:        gormDB,
		Transport: transport,
		Period:    time.Duration(cfg.Scheduler.PeriodSeconds) * time.Second,
		Cron:      cfg.Scheduler.Cron,
		Out:       out,
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Start(ctx, api.StartOpts{
		DB:        gormDB,
		Transport: transport,
		Port:      cfg.API.Port,
		Out:       out,
	})
}

// transportFromConfig builds the SMTP transport, or nil when no relay is
// configured.
func transportFromConfig(cfg *config.Config) channel.Transport {
	if cfg.SMTP.Host == "" {
		return nil
	}
	return &channel.SMTPTransport{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}
}

// connectFromConfig loads config and returns a GORM DB connection.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.DB.Database, err)
	}

	return cfg, gormDB, nil
}
