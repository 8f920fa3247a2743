package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/wayfarer/internal/chart"
	"github.com/zulandar/wayfarer/internal/config"
	"github.com/zulandar/wayfarer/internal/dashboard"
	"github.com/zulandar/wayfarer/internal/db"
	"github.com/zulandar/wayfarer/internal/dialog"
	"github.com/zulandar/wayfarer/internal/gateway"
	discordadapter "github.com/zulandar/wayfarer/internal/gateway/discord"
	slackadapter "github.com/zulandar/wayfarer/internal/gateway/slack"
	"github.com/zulandar/wayfarer/internal/locate"
	"github.com/zulandar/wayfarer/internal/weather"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Wayfarer bot daemon",
		Long:  "Connects to the configured chat platform and serves weather dialogues until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "wayfarer.yaml", "path to Wayfarer config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Cache.Path)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	resolver, err := buildResolver(cfg, gormDB)
	if err != nil {
		return err
	}

	provider, err := weather.NewAccuWeatherClient(weather.AccuWeatherOpts{
		APIKey:  cfg.AccuWeather.APIKey,
		BaseURL: cfg.AccuWeather.BaseURL,
	})
	if err != nil {
		return err
	}

	renderer := chart.NewQuickChart(chart.QuickChartOpts{
		URL: cfg.Chart.RendererURL,
	})

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	store := dialog.NewStore()
	daemon, err := gateway.NewDaemon(gateway.DaemonOpts{
		Config:   cfg,
		Adapter:  adapter,
		Resolver: resolver,
		Provider: provider,
		Renderer: renderer,
		Store:    store,
		DB:       gormDB,
		Out:      cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if cfg.Dashboard.Enabled {
		go func() {
			err := dashboard.Start(ctx, dashboard.StartOpts{
				DB:    gormDB,
				Store: store,
				Port:  cfg.Dashboard.Port,
				Out:   cmd.OutOrStdout(),
			})
			if err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}

// buildResolver wraps the AccuWeather city search in the sqlite cache.
func buildResolver(cfg *config.Config, gormDB *gorm.DB) (locate.Resolver, error) {
	base, err := locate.NewAccuWeatherResolver(locate.AccuWeatherOpts{
		APIKey:  cfg.AccuWeather.APIKey,
		BaseURL: cfg.AccuWeather.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return locate.NewCachedResolver(gormDB, base)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (gateway.Adapter, error) {
	switch cfg.Platform {
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  cfg.Discord.Token,
			ChannelID: cfg.Discord.ChannelID,
		})
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  cfg.Slack.AppToken,
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
	default:
		return nil, fmt.Errorf("wayfarer: unsupported platform %q", cfg.Platform)
	}
}
