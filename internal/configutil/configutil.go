package configutil

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagOrViperString resolves a string setting: an explicitly set flag
// wins, otherwise the viper key (config file or env) applies.
func FlagOrViperString(cmd *cobra.Command, flagName, viperKey string) string {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		v, _ := cmd.Flags().GetString(flagName)
		return v
	}
	if viper.IsSet(viperKey) {
		return viper.GetString(viperKey)
	}
	if cmd != nil {
		v, _ := cmd.Flags().GetString(flagName)
		return v
	}
	return ""
}

// FlagOrViperBool is the bool counterpart of FlagOrViperString.
func FlagOrViperBool(cmd *cobra.Command, flagName, viperKey string) bool {
	if cmd != nil && cmd.Flags().Changed(flagName) {
		v, _ := cmd.Flags().GetBool(flagName)
		return v
	}
	if viper.IsSet(viperKey) {
		return viper.GetBool(viperKey)
	}
	if cmd != nil {
		v, _ := cmd.Flags().GetBool(flagName)
		return v
	}
	return false
}
