package commands

import (
	"gitvault/pkg/types"
	"gitvault/pkg/vcserr"

	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout (-- <file> | <commit> -- <file> | <branch>)",
	Short: "Restore a file or switch branches",
	Long: `Three forms:
  checkout -- <file>            restore file from the head commit
  checkout <commit> -- <file>   restore file from the given (possibly abbreviated) commit
  checkout <branch>             switch the working tree to the given branch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dash := cmd.ArgsLenAtDash()

		switch {
		case dash == 0 && len(args) == 1:
			return GV.Repo.CheckoutFile(ctx, args[0])
		case dash == 1 && len(args) == 2:
			return GV.Repo.CheckoutCommitFile(ctx, args[0], args[1])
		case dash == -1 && len(args) == 1:
			return GV.Repo.CheckoutBranch(ctx, types.BranchName(args[0]))
		default:
			return vcserr.Usagef("incorrect operands")
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <commit>",
	Short: "Move the current branch to a commit and check out its files",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := GV.Repo.Reset(cmd.Context(), args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(resetCmd)
}
