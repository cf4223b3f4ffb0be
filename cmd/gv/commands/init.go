package commands

import (
	"log/slog"
	"os"

	"gitvault/pkg/app"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a gitvault repository",
	Long:  `Create an empty repository in the current directory with a single root commit on branch master.`,
	Args:  operands(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		a, err := app.Init(cmd.Context(), wd, slog.Default())
		if err != nil {
			return err
		}
		GV = a
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
