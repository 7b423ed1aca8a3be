package main

import (
	"fmt"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the demo action tree as a Mermaid flowchart",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		store := arbor.CreateState(demo.Tree(nil), e.cfg.Namespace, arbor.WithBus(bus.New()), arbor.WithLogger(e.logger))
		defer store.Close()

		fmt.Print(graph.GenerateMermaid(store.Actions(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
