package main

import (
	"fmt"

	"github.com/spf13/cobra"

	promptpanehttp "github.com/fyrsmithlabs/promptpane/internal/http"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Long: `Check whether a promptpane server is reachable.

Examples:
  promptpane health
  promptpane health --server http://localhost:8321`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := promptpanehttp.NewClient(serverURL)
		if err := client.Health(cmd.Context()); err != nil {
			return fmt.Errorf("server unhealthy: %w", err)
		}
		fmt.Printf("Server Status: ok\n")
		fmt.Printf("Server URL: %s\n", serverURL)
		return nil
	},
}
