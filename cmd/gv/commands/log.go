package commands

import (
	"fmt"

	"gitvault/pkg/exporter"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the history of the current branch",
	Long:  `Display commits from HEAD back to the initial commit, following first parents only.`,
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		commits, err := GV.Repo.Log(cmd.Context())
		if err != nil {
			return err
		}
		return exporter.WriteLog(cmd.OutOrStdout(), commits)
	},
}

var globalLogCmd = &cobra.Command{
	Use:   "global-log",
	Short: "Show every commit ever made",
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		commits, err := GV.Repo.GlobalLog(cmd.Context())
		if err != nil {
			return err
		}
		return exporter.WriteLog(cmd.OutOrStdout(), commits)
	},
}

var findCmd = &cobra.Command{
	Use:   "find <message>",
	Short: "Print the ids of all commits with the given message",
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := GV.Repo.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(globalLogCmd)
	rootCmd.AddCommand(findCmd)
}
