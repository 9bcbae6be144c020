package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Document represents one indexed document.
type Document struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
	SHA256 string `json:"sha256,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// DocumentsResponse represents the documents API response.
type DocumentsResponse struct {
	Documents   []Document `json:"documents"`
	TotalChunks int        `json:"total_chunks"`
}

// DocumentsCmd creates the documents command.
func DocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List indexed advisory documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)
			return runDocuments(api, outputJSON)
		},
	}
}

func runDocuments(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var docs DocumentsResponse
	if err := json.Unmarshal(resp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse documents: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(docs.Documents) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	for _, d := range docs.Documents {
		line := fmt.Sprintf("%-24s %4d chunks", d.Source, d.Chunks)
		if d.Origin != "" {
			line += "  " + d.Origin
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%d chunks total\n", docs.TotalChunks)
	return nil
}
