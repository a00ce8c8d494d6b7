package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [actionId]",
	Short: "Export the tree visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of one action tree, or of every tree when no id is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		treesPath, _ := cmd.Flags().GetString("trees")
		loader, err := file.NewLoader(treesPath)
		if err != nil {
			return fmt.Errorf("error loading trees: %w", err)
		}

		var roots []*domain.ActionNode
		if len(args) == 1 {
			id, err := parseActionID(args[0])
			if err != nil {
				return err
			}
			root, err := loader.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			roots = append(roots, root)
		} else if roots, err = loader.List(cmd.Context()); err != nil {
			return err
		}

		for _, root := range roots {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(root, nil))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
