package commands

import (
	"github.com/spf13/cobra"
)

var commitMsg string

var commitCmd = &cobra.Command{
	Use:   "commit [message]",
	Short: "Record changes to the repository",
	Long:  `Create a new commit containing the tracked files of the current commit plus the staged changes.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := commitMsg
		if len(args) == 1 {
			msg = args[0]
		}
		c, err := GV.Repo.Commit(cmd.Context(), msg)
		if err != nil {
			return err
		}
		GV.Logger.Info("committed", "id", c.ID().Short(8), "message", msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)

	// 绑定 Flags
	commitCmd.Flags().StringVarP(&commitMsg, "message", "m", "", "commit message")
}
