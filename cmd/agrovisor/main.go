package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/agrovisor/internal/cli"
	"github.com/cloo-solutions/agrovisor/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agrovisor",
		Short: "Agrovisor CLI - Conversational agriculture advisory",
		Long: `Agrovisor CLI provides commands to query the advisory service.

Environment variables:
  AGROVISOR_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.DocumentsCmd())
	rootCmd.AddCommand(client.LocationCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
