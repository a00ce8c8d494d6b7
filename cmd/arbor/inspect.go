package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <actionId>",
	Short: "Describe an action tree",
	Long:  `Prints an outline of the tree and the action types it uses. Output is styled when stdout is a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseActionID(args[0])
		if err != nil {
			return err
		}
		treesPath, _ := cmd.Flags().GetString("trees")
		plain, _ := cmd.Flags().GetBool("plain")

		loader, err := file.NewLoader(treesPath)
		if err != nil {
			return fmt.Errorf("error loading trees: %w", err)
		}
		root, err := loader.Load(cmd.Context(), id)
		if err != nil {
			return err
		}

		doc := tui.TreeMarkdown(root, arbor.New().Registry())
		if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
			render, err := tui.NewRenderer()
			if err != nil {
				return err
			}
			if doc, err = render(doc); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), doc)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
}
