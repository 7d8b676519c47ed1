package main

import (
	"encoding/json"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/client"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/spf13/cobra"
)

func newConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <redirect-url>",
		Short: "Confirm an order from the payment page's return URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := confirmFromRedirect(cmd, client.New(apiURL, nil), args[0])
			if err != nil {
				return err
			}
			printConfirmation(cmd.OutOrStdout(), conf)
			return nil
		},
	}
}

func newOrderCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "order <order-number>",
		Short: "Show a confirmed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := client.New(apiURL, nil).Order(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(o)
			}
			printConfirmation(cmd.OutOrStdout(), orders.Confirmation{OrderNumber: o.Number, Order: o})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}
