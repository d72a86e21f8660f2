package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "spot_bot",
	Short: "Gate.io spot trading bot",
	Long: `spot_bot runs one trading loop per configured symbol and, when enabled,
a follower that mirrors signals published into a JSON file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the yaml config (defaults to CONFIG_FILE)")
	rootCmd.AddCommand(runCmd, ledgerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
