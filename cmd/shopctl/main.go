// Command shopctl drives a checkout against the shop API from a terminal:
// it builds a cart locally, opens a payment session, and confirms the order
// from the URL the payment page redirects to.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL  string
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:           "shopctl",
		Short:         "Shop checkout from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("SHOP_API_URL", "http://localhost:8081"), "shop API base URL")
	rootCmd.AddCommand(newBuyCmd(), newConfirmCmd(), newOrderCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
