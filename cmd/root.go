package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lifemap",
	Short: "Personal life-events store",
	Long: `LifeMap keeps user-recorded life events in a local embedded
database and exposes a reactive state core over them. The binary only
carries maintenance commands; there is no server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "directory containing config.yaml")
}
