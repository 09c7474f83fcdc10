package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show service health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newAPIClient().get("/health")
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), globalOpts.format, doc)
	},
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List images stored by the service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newAPIClient().get("/images-list")
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), globalOpts.format, doc)
	},
}
