package commands

import (
	"gitvault/pkg/types"

	"github.com/spf13/cobra"
)

var catRaw bool

var catCmd = &cobra.Command{
	Use:   "cat-object <id>",
	Short: "Show a blob or commit by (abbreviated) id",
	Long:  `Print the structure of a stored object. With --raw a blob's content is written as-is, so it can be redirected to a file.`,
	Args:  operands(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := types.HashPrefix(args[0])
		if catRaw {
			return GV.Exporter.ExportBlob(cmd.Context(), prefix, cmd.OutOrStdout())
		}
		return GV.Exporter.PrintObject(cmd.Context(), prefix, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(catCmd)

	catCmd.Flags().BoolVar(&catRaw, "raw", false, "write blob content only")
}
