package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajmalps/trovebot/cmd/trovebot/servecmd"
	"github.com/ajmalps/trovebot/cmd/trovebot/webhookcmd"
)

func main() {
	root := &cobra.Command{
		Use:           "trovebot",
		Short:         "File-indexing Telegram bot with a searchable archive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgFile string
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./trovebot.yaml, $HOME/.trovebot/trovebot.yaml)")

	cobra.OnInitialize(func() {
		if strings.TrimSpace(cfgFile) != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.SetConfigName("trovebot")
			viper.SetConfigType("yaml")
			viper.AddConfigPath(".")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(home + "/.trovebot")
			}
		}
		viper.SetEnvPrefix("TROVEBOT")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()
		// A missing config file is fine; env can carry everything.
		_ = viper.ReadInConfig()
	})

	root.AddCommand(servecmd.NewServeCmd())
	root.AddCommand(webhookcmd.NewSetWebhookCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
