package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/persistence"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [namespace]",
	Short: "Print the stored snapshot of a namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := requireStorage(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ns := e.cfg.Namespace
		if len(args) > 0 {
			ns = args[0]
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		adapter := persistence.New(e.storage, persistence.WithLogger(e.logger))

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if e.cfg.Storage.Driver != config.DriverFile {
				return fmt.Errorf("--watch needs the %q storage driver", config.DriverFile)
			}
			ctx := NewSignalContext(context.Background())
			defer ctx.Cancel()

			// Snapshot bytes may be encrypted, so changes only trigger a reload.
			changes, err := file.New(e.cfg.Storage.Path).Watch(ctx, ns)
			if err != nil {
				return err
			}
			for range changes {
				if err := printSnapshot(cmd.Context(), adapter, ns, asJSON); err != nil {
					e.logger.Warn("Snapshot unreadable", "namespace", ns, "err", err)
				}
			}
			return nil
		}

		return printSnapshot(cmd.Context(), adapter, ns, asJSON)
	},
}

func printSnapshot(ctx context.Context, adapter *persistence.Adapter, ns string, asJSON bool) error {
	var state domain.State
	if err := adapter.Load(ctx, ns, &state); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no snapshot stored for %q", ns)
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	md, err := tui.StateMarkdown(ns, state.AsMap())
	if err != nil {
		return err
	}
	return render(md)
}

var resetCmd = &cobra.Command{
	Use:   "reset [namespace]",
	Short: "Delete the stored snapshot of a namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := requireStorage(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		ns := e.cfg.Namespace
		if len(args) > 0 {
			ns = args[0]
		}
		if err := persistence.New(e.storage).Delete(cmd.Context(), ns); err != nil {
			return err
		}
		e.logger.Info("Snapshot deleted", "namespace", ns)
		fmt.Printf("Reset %q\n", ns)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List namespaces with a stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := requireStorage(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		keys, err := persistence.New(e.storage).Keys(cmd.Context())
		if err != nil {
			return err
		}
		return render(tui.ListMarkdown(keys))
	},
}

// render styles markdown when stdout is a terminal.
func render(md string) error {
	renderer := tui.PlainRenderer
	if term.IsTerminal(int(os.Stdout.Fd())) {
		renderer = tui.NewRenderer()
	}
	out, err := renderer(md)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd, resetCmd, listCmd)
	inspectCmd.Flags().Bool("json", false, "Print the raw snapshot as JSON")
	inspectCmd.Flags().Bool("watch", false, "Print the snapshot again after every save (file driver only)")
}
