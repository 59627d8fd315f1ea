// Promptpane serves conversation transcripts as annotated blog posts and
// ships a terminal reader with a prompt-suggestion sidebar.
//
// Usage:
//
//	# Serve the HTTP API over a transcripts directory
//	promptpane serve --transcripts ./transcripts
//
//	# Read transcripts in the terminal
//	promptpane read
//
//	# Inspect a running server
//	promptpane posts list
//	promptpane health
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	serverURL  string

	// version information (set via ldflags during build)
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "promptpane",
	Short: "Annotated conversation reader and server",
	Long: `promptpane turns conversation transcripts into annotated blog posts:
each user prompt can carry improvement suggestions, and the reader can
copy original, improved, or compressed context packages to the clipboard.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/promptpane/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8321", "promptpane server URL")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(healthCmd)
}
