// Package cmd wires the runlet command-line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/runlet/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "runlet",
	Short: "Concurrent shell task runner",
	Long: `Runlet executes sets of shell tasks defined in JSON: independent
tasks fan out across parallel workers, dependent tasks run afterwards in
declaration order, and every task's output is captured and persisted.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/runlet/config.yaml)")
	rootCmd.PersistentFlags().String("root", ".", "directory task working directories resolve against")
	rootCmd.PersistentFlags().String("format", "", "output format: jsonl, json, md")
	rootCmd.PersistentFlags().Bool("pretty", false, "indent JSON output")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("output.pretty", rootCmd.PersistentFlags().Lookup("pretty"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/runlet")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RUNLET")
	// Replace dots with underscores for nested keys in env vars
	// e.g., RUNLET_RUN_MAX_PARALLEL for run.max_parallel
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
