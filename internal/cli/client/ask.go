package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// QueryRequest represents the query API request.
type QueryRequest struct {
	Query   string `json:"query"`
	Village string `json:"village,omitempty"`
	State   string `json:"state,omitempty"`
}

// QueryResponse represents the query API response.
type QueryResponse struct {
	Answer      string `json:"answer"`
	Intent      string `json:"intent"`
	State       string `json:"state"`
	SourceCount int    `json:"source_count"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var village, state string

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask a single advisory question",
		Long:  "Sends one question to the advisory service and prints the answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)
			return runAsk(api, QueryRequest{Query: args[0], Village: village, State: state}, outputJSON)
		},
	}

	cmd.Flags().StringVar(&village, "village", "", "Pin the query to a village")
	cmd.Flags().StringVar(&state, "state", "", "Pin the query to a state")

	return cmd
}

func runAsk(api *APIClient, req QueryRequest, outputJSON bool) error {
	resp, err := api.Post("/query", req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	var ans QueryResponse
	if err := json.Unmarshal(resp.Data, &ans); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ans, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(ans.Answer)
	if ans.SourceCount > 0 {
		fmt.Printf("\n(%s, %d sources)\n", ans.Intent, ans.SourceCount)
	}
	return nil
}
