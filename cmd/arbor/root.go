package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor runs configured action trees behind personalized links",
	Long: `Arbor evaluates trees of marketing actions (log, tag, redirect, mail...)
when a visitor follows an action link, and keeps the contact store up to date.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("trees", "arbor.yaml", "Tree configuration file or directory")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("base-url", "/", "Base URL absolute action links are rooted at")
	flags.String("redis", "", "Redis address for contacts, events and locks (e.g. localhost:6379)")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database number")
	flags.String("db", "", "Bolt database file for contacts and events (ignored when --redis is set)")
	flags.StringSlice("mask", nil, "Regular expressions of event property keys to mask before storage")
	flags.String("events-key", "", "Hex encoded 32 byte key sealing event properties at rest")
}
