package webhookcmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajmalps/trovebot/config"
	"github.com/ajmalps/trovebot/internal/configutil"
	"github.com/ajmalps/trovebot/telegram"
)

func NewSetWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-webhook",
		Short: "Register the webhook URL with the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetWebhook(cmd)
		},
	}

	cmd.Flags().String("url", "", "Public base URL the platform can reach (e.g. https://bot.example.com).")

	return cmd
}

func runSetWebhook(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	base := strings.TrimSpace(configutil.FlagOrViperString(cmd, "url", "webhook.base_url"))
	if base == "" {
		base = cfg.WebhookBaseURL
	}
	if base == "" {
		return fmt.Errorf("missing webhook base URL (--url or webhook.base_url)")
	}
	webhookURL := strings.TrimRight(base, "/") + "/webhook"

	api := telegram.NewAPI(nil, cfg.BaseURL, cfg.Token, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := api.SetWebhook(ctx, webhookURL); err != nil {
		return err
	}
	fmt.Println("webhook set:", webhookURL)
	return nil
}
