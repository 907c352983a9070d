package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quote-feed",
	Short: "Market Quote Acquisition Engine",
	Long: `A resilient market-quote acquisition engine built with Go.

Features:
• Interval-driven polling across equities, crypto, and commodities
• Per-asset-class provider fallback chains with cached and mock tiers
• Normalized quotes with half-up two-decimal rounding
• NATS JetStream broadcast of every polled quote
• REST API for on-demand quotes, history, and watchlist management`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
