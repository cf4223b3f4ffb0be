package commands

import (
	"fmt"
	"io"

	"gitvault/pkg/repo"
	"gitvault/pkg/types"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <branch>",
	Short: "Merge the given branch into the current branch",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := GV.Repo.Merge(cmd.Context(), types.BranchName(args[0]))
		if err != nil {
			return err
		}
		printMerge(cmd.OutOrStdout(), res)
		return nil
	},
}

func printMerge(w io.Writer, res *repo.MergeResult) {
	switch {
	case res.AlreadyMerged:
		fmt.Fprintln(w, "Given branch is an ancestor of the current branch.")
	case res.FastForwarded:
		fmt.Fprintln(w, "Current branch fast-forwarded.")
	case res.HasConflicts():
		fmt.Fprintln(w, "Encountered a merge conflict.")
	}
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
