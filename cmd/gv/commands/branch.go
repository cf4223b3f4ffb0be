package commands

import (
	"gitvault/pkg/types"

	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a branch pointing at the head commit",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.Branch(cmd.Context(), types.BranchName(args[0]))
	},
}

var rmBranchCmd = &cobra.Command{
	Use:   "rm-branch <name>",
	Short: "Delete a branch pointer",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.RemoveBranch(cmd.Context(), types.BranchName(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(rmBranchCmd)
}
