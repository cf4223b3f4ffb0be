package commands

import (
	"fmt"
	"io"
	"slices"

	"gitvault/pkg/repo"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show branches, staged files and working tree changes",
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := GV.Repo.Status(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), report)
		return nil
	},
}

func printStatus(w io.Writer, r *repo.StatusReport) {
	fmt.Fprintln(w, "=== Branches ===")
	for _, b := range r.Branches {
		if b == r.Current {
			fmt.Fprint(w, "*")
		}
		fmt.Fprintln(w, b)
	}

	section(w, "Staged Files", r.Staged)
	section(w, "Removed Files", r.Removed)

	// 修改与删除合并成一个按路径排序的列表
	var changes []string
	for _, p := range r.ModifiedNotStaged {
		changes = append(changes, p+" (modified)")
	}
	for _, p := range r.DeletedNotStaged {
		changes = append(changes, p+" (deleted)")
	}
	slices.Sort(changes)
	section(w, "Modifications Not Staged For Commit", changes)

	section(w, "Untracked Files", r.Untracked)
	fmt.Fprintln(w)
}

func section(w io.Writer, title string, lines []string) {
	fmt.Fprintf(w, "\n=== %s ===\n", title)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
