package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/bot"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/config"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

var (
	flagNoWeb bool
	flagNoBot bool
)

var rootCmd = &cobra.Command{
	Use:           "soundboard",
	Short:         "Discord soundboard bot with a web upload form",
	Long:          `Runs the Discord soundboard bot and, unless disabled, the web form for uploading MP3 sounds. Both share the same sound catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().BoolVar(&flagNoWeb, "no-web", false, "do not start the web upload form")
	rootCmd.Flags().BoolVar(&flagNoBot, "no-bot", false, "do not connect to Discord (web form only)")
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagNoBot && flagNoWeb {
		return fmt.Errorf("--no-bot and --no-web leave nothing to run")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Format: "text"})
		bootLog.WithError(err).Error("Failed to load configuration")
		return err
	}

	if flagNoBot && !cfg.WebEnabled {
		return fmt.Errorf("--no-bot with WEB_ENABLED=false leaves nothing to run")
	}

	log := newLogger(cfg)
	log.Infof("Starting %s v%s", cfg.BotName, cfg.Version)
	log.Infof("Token: %s", cfg.GetSafeToken())

	soundboard, err := bot.New(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to create bot")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if !flagNoBot {
		g.Go(func() error {
			if err := soundboard.Start(ctx); err != nil {
				return err
			}
			log.Info("✅ Bot is now running. Press CTRL-C to exit.")

			<-ctx.Done()
			log.Info("Shutting down gracefully...")
			soundboard.Stop()
			log.Info("Bot stopped successfully")
			return nil
		})
	}

	if !flagNoWeb && cfg.WebEnabled {
		server := soundboard.NewWebServer()
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	return g.Wait()
}

