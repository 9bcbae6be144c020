package client

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/config"
	"github.com/cloo-solutions/agrovisor/internal/domain"
	"github.com/cloo-solutions/agrovisor/internal/profile"
	"github.com/spf13/cobra"
)

// LocationCmd creates the location command.
func LocationCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "location [village, state]",
		Short: "Show or set the saved location",
		Long: `Shows the saved default location, or sets it when a "village, state" argument
is given. Queries that name no place fall back to the saved location.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := profileStore()
			if err != nil {
				return err
			}
			if clear {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("failed to clear location: %w", err)
				}
				fmt.Println("Saved location cleared.")
				return nil
			}
			return runLocation(store, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "Forget the saved location")

	return cmd
}

func profileStore() (*profile.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return profile.NewStore(filepath.Join(cfg.DataDir, "profile.json")), nil
}

func runLocation(store *profile.Store, arg string) error {
	if strings.TrimSpace(arg) == "" {
		loc, ok := store.LastLocation()
		if !ok {
			fmt.Println("No location saved. Set one with: location <village>, <state>")
			return nil
		}
		fmt.Printf("Saved location: %s\n", loc.DisplayName)
		return nil
	}

	village, state, err := parseLocationArg(arg)
	if err != nil {
		return err
	}

	if err := store.SetLastLocation(domain.Location{Village: village, State: state}); err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	fmt.Printf("Location saved: %s, %s\n", village, state)
	return nil
}

func parseLocationArg(arg string) (village, state string, err error) {
	village, state, ok := strings.Cut(arg, ",")
	village = strings.TrimSpace(village)
	state = strings.TrimSpace(state)
	if !ok || village == "" || state == "" {
		return "", "", fmt.Errorf(`expected "<village>, <state>" (e.g. "Moga, Punjab")`)
	}
	return village, state, nil
}
