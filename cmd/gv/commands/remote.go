package commands

import (
	"gitvault/pkg/types"

	"github.com/spf13/cobra"
)

var addRemoteCmd = &cobra.Command{
	Use:   "add-remote <name> <directory>",
	Short: "Register another repository as a remote",
	Long:  `The directory may be the other repository's working directory or its .gv directory, e.g. ../other/.gv`,
	Args:  operands(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.AddRemote(cmd.Context(), args[0], args[1])
	},
}

var rmRemoteCmd = &cobra.Command{
	Use:   "rm-remote <name>",
	Short: "Forget a remote",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.RemoveRemote(cmd.Context(), args[0])
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <remote> <branch>",
	Short: "Copy the current branch history to a remote branch",
	Args:  operands(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.Push(cmd.Context(), args[0], types.BranchName(args[1]))
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <remote> <branch>",
	Short: "Copy a remote branch into the local branch <remote>/<branch>",
	Args:  operands(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := GV.Repo.Fetch(cmd.Context(), args[0], types.BranchName(args[1]))
		return err
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull <remote> <branch>",
	Short: "Fetch a remote branch and merge it into the current branch",
	Args:  operands(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := GV.Repo.Pull(cmd.Context(), args[0], types.BranchName(args[1]))
		if err != nil {
			return err
		}
		printMerge(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addRemoteCmd)
	rootCmd.AddCommand(rmRemoteCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pullCmd)
}
