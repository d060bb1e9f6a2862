package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/guardian/internal/app"
	"github.com/bft-labs/guardian/internal/cliconfig"
	"github.com/bft-labs/guardian/internal/state"
)

// newStateCmd builds the `guardian state` command group for inspecting
// and repairing the tracking document without running the daemon.
func newStateCmd(cfg *cliconfig.Config, cfgPath *string) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or repair the lifecycle tracking state",
	}

	openStore := func(cmd *cobra.Command) (*state.Store, error) {
		if _, err := resolveConfig(cmd, cfg, *cfgPath); err != nil {
			return nil, err
		}
		if cfg.StateDir == "" {
			return nil, fmt.Errorf("state-dir is required")
		}
		return state.NewStore(cfg.StateDir, cfg.KeepBackups, app.NewLogger(cfg.LogLevel)), nil
	}

	listCmd := &cobra.Command{
		Use:       "list <welcomed|warned|removed>",
		Short:     "List tracked users in one lifecycle bucket",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"welcomed", "warned", "removed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			doc := store.Load()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer w.Flush()

			switch args[0] {
			case "welcomed":
				printTimestamps(w, doc.Welcomed)
			case "warned":
				printTimestamps(w, doc.Warned)
			case "removed":
				fmt.Fprintln(w, "USER\tWHEN\tSUCCESS\tREASON")
				for _, id := range sortedKeys(doc.Removed) {
					r := doc.Removed[id]
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", id, r.When.Format(time.RFC3339), r.Success, r.Reason)
				}
			default:
				return fmt.Errorf("unknown bucket %q", args[0])
			}
			return nil
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset <user-id>",
		Short: "Clear all tracking for a user (they will be treated as new)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			doc := store.Load()

			id := args[0]
			if !doc.Tracked(id) {
				return fmt.Errorf("user %q is not tracked", id)
			}
			doc.Reset(id)
			if err := store.Save(doc); err != nil {
				return err
			}
			fmt.Printf("cleared tracking for %s\n", id)
			return nil
		},
	}

	stateCmd.AddCommand(listCmd, resetCmd)
	return stateCmd
}

func printTimestamps(w *tabwriter.Writer, m map[string]time.Time) {
	fmt.Fprintln(w, "USER\tWHEN")
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", id, m[id].Format(time.RFC3339))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
