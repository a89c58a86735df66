package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// IndexStatus represents the index API response.
type IndexStatus struct {
	Loaded     bool           `json:"loaded"`
	CreatedAt  string         `json:"created_at,omitempty"`
	Chunks     int            `json:"chunks"`
	Dimensions int            `json:"dimensions"`
	ByType     map[string]int `json:"by_type,omitempty"`
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server and index status",
		Long:  "Checks the server health endpoint and reports what the index holds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(outputJSON)
		},
	}
}

func runStatus(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	resp, err := api.Get("/api/index")
	if err != nil {
		return err
	}

	var status IndexStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return fmt.Errorf("failed to parse index status: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	fmt.Println("server: ok")
	if !status.Loaded {
		fmt.Println("index: not loaded")
		return nil
	}

	fmt.Printf("index: %d chunks (%d dims), built %s\n", status.Chunks, status.Dimensions, status.CreatedAt)
	for chunkType, count := range status.ByType {
		fmt.Printf("  %s: %d\n", chunkType, count)
	}

	return nil
}
