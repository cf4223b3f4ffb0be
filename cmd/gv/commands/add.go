package commands

import (
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Stage the current contents of a file",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.Add(cmd.Context(), args[0])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <file>",
	Short: "Unstage a file, or stage a tracked file for removal",
	Long:  `If the file is staged for addition it is unstaged. If it is tracked by the current commit it is staged for removal and deleted from the working directory.`,
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return GV.Repo.Remove(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)
}
