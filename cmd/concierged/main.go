package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portola-retreat/concierge/internal/cli"
	"github.com/portola-retreat/concierge/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "concierged",
		Short: "Concierge daemon and admin CLI",
		Long:  "Concierge daemon for running the event assistant API server and managing the semantic index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
