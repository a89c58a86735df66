package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AgendaItem represents one schedule item from the agenda API.
type AgendaItem struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Date     string `json:"date"`
	Display  string `json:"display"`
}

// AgendaResponse represents the agenda API response.
type AgendaResponse struct {
	Date  string       `json:"date,omitempty"`
	Dates []string     `json:"dates"`
	Items []AgendaItem `json:"items"`
}

// AgendaCmd creates the agenda command.
func AgendaCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "List the event agenda",
		Long:  "Lists schedule items, optionally filtered to one date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAgenda(date, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Filter to one date (YYYY-MM-DD)")

	return cmd
}

func runAgenda(date string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	path := "/api/agenda"
	if date != "" {
		path += "?date=" + date
	}

	resp, err := api.Get(path)
	if err != nil {
		return err
	}

	var agenda AgendaResponse
	if err := json.Unmarshal(resp.Data, &agenda); err != nil {
		return fmt.Errorf("failed to parse agenda response: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(agenda)
	}

	if len(agenda.Items) == 0 {
		fmt.Println("No agenda items.")
		return nil
	}

	lastDate := ""
	for _, item := range agenda.Items {
		if item.Date != lastDate {
			fmt.Printf("%s\n", item.Date)
			lastDate = item.Date
		}
		line := fmt.Sprintf("  %s  %s", item.Display, item.Name)
		if item.Location != "" {
			line += " — " + item.Location
		}
		fmt.Println(line)
	}

	return nil
}
