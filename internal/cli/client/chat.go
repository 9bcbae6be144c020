package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/spf13/cobra"
)

// locationStore is the profile subset the chat loop needs.
type locationStore interface {
	LastLocation() (domain.Location, bool)
	SetLastLocation(loc domain.Location) error
}

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive advisory session",
		Long: `Starts an interactive session against the advisory service.

Inside the session:
  set location <village>, <state>   save a default location
  exit / quit                       end the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := profileStore()
			if err != nil {
				return err
			}
			api := NewAPIClientWithCmd(cmd)
			return runChat(api, store, os.Stdin, os.Stdout)
		},
	}
}

func runChat(api *APIClient, store locationStore, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Ask a farming question (type 'exit' to quit).")
	if loc, ok := store.LastLocation(); ok {
		fmt.Fprintf(out, "Using saved location: %s\n", loc.DisplayName)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		const setLocation = "set location "
		if len(line) > len(setLocation) && strings.EqualFold(line[:len(setLocation)], setLocation) {
			village, state, err := parseLocationArg(line[len(setLocation):])
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			if err := store.SetLastLocation(domain.Location{Village: village, State: state}); err != nil {
				fmt.Fprintf(out, "Error: failed to save location: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "Location saved: %s, %s\n", village, state)
			continue
		}

		resp, err := api.Post("/query", QueryRequest{Query: line})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		var ans QueryResponse
		if err := json.Unmarshal(resp.Data, &ans); err != nil {
			fmt.Fprintf(out, "Error: failed to parse answer: %v\n", err)
			continue
		}
		fmt.Fprintln(out, ans.Answer)
	}

	return scanner.Err()
}
