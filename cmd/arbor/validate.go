package main

import (
	"fmt"
	"sort"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the tree configuration for consistency",
	Long:  `Loads every tree and reports unknown action types, duplicate node ids and nodes a redirect makes unreachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		treesPath, _ := cmd.Flags().GetString("trees")
		loader, err := file.NewLoader(treesPath)
		if err != nil {
			return fmt.Errorf("error loading trees: %w", err)
		}

		failures, err := validator.ValidateAll(cmd.Context(), loader, arbor.New().Registry())
		if err != nil {
			return err
		}
		if len(failures) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Trees are valid! ✅")
			return nil
		}

		ids := make([]int32, 0, len(failures))
		for id := range failures {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(cmd.ErrOrStderr(), "tree %d: %v\n", id, failures[id])
		}
		return fmt.Errorf("validation failed for %d trees", len(failures))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
