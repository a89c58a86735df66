package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portola-retreat/concierge/internal/cli"
	"github.com/portola-retreat/concierge/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "concierge",
		Short: "Concierge CLI - Event assistant client",
		Long: `Concierge CLI talks to a running concierge server.

Environment variables:
  CONCIERGE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.AgendaCmd())
	rootCmd.AddCommand(client.StatusCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
