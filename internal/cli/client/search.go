package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResult represents one scored advisory chunk.
type SearchResult struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	PageStart int     `json:"page_start"`
	PageEnd   int     `json:"page_end"`
	Heading   string  `json:"heading,omitempty"`
	Content   string  `json:"content"`
	Score     float32 `json:"score"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the advisory index",
		Long:  "Runs a raw similarity search against the ingested advisory documents.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)
			return runSearch(api, args[0], outputJSON)
		},
	}
}

func runSearch(api *APIClient, query string, outputJSON bool) error {
	resp, err := api.Post("/search", SearchRequest{Query: query})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		title := result.Heading
		if title == "" {
			title = result.Source
		}
		fmt.Printf("%d. %s (%.2f)\n", i+1, title, result.Score)

		snippet := result.Content
		if len(snippet) > 100 {
			snippet = snippet[:97] + "..."
		}
		fmt.Printf("   %s\n", snippet)
		fmt.Printf("   %s, pages %d-%d\n", result.Source, result.PageStart, result.PageEnd)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
