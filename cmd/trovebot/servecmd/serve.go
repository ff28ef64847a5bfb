package servecmd

import (
	"context"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajmalps/trovebot/archive"
	"github.com/ajmalps/trovebot/bot"
	"github.com/ajmalps/trovebot/config"
	"github.com/ajmalps/trovebot/db"
	"github.com/ajmalps/trovebot/internal/configutil"
	"github.com/ajmalps/trovebot/internal/logutil"
	"github.com/ajmalps/trovebot/retrieval"
	"github.com/ajmalps/trovebot/search"
	"github.com/ajmalps/trovebot/store"
	"github.com/ajmalps/trovebot/sweeper"
	"github.com/ajmalps/trovebot/telegram"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and the deletion sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	cmd.Flags().String("listen", "127.0.0.1:8080", "Webhook server listen address.")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listen := strings.TrimSpace(configutil.FlagOrViperString(cmd, "listen", "listen")); listen != "" {
		cfg.Listen = listen
	}

	logger, err := logutil.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	st, err := store.New(gdb, logger)
	if err != nil {
		return err
	}

	api := telegram.NewAPI(nil, cfg.BaseURL, cfg.Token, logger)

	relay, err := archive.New(st, api, cfg.ArchiveDestinations,
		time.Duration(cfg.AutoDeleteSeconds)*time.Second, logger)
	if err != nil {
		return err
	}
	index, err := search.New(st, logger)
	if err != nil {
		return err
	}
	dispatcher, err := retrieval.New(st, api, logger)
	if err != nil {
		return err
	}

	botCfg := bot.Config{
		OwnerID:          cfg.OwnerID,
		ForceSubChannel:  cfg.ForceSub.Channel,
		ForceSubOptional: cfg.ForceSub.Optional,
		PageSize:         cfg.SearchPageSize,
		DeliverAllCap:    cfg.DeliverAllCap,
		BroadcastDelay:   cfg.BroadcastDelay,
	}

	meCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	username, err := api.BotUsername(meCtx)
	cancel()
	if err != nil {
		logger.Warn("bot_username_lookup_failed", "error", err.Error())
	} else {
		botCfg.BotUsername = username
	}

	b, err := bot.New(botCfg, st, api, relay, index, dispatcher, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sw, err := sweeper.New(st, api, sweeper.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	if err := sw.Start(ctx); err != nil {
		return err
	}

	srv := bot.NewServer(b, cfg.Listen, logger)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	sw.Wait()
	return nil
}
