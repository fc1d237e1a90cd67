package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/xpdash/internal/cli"
	"github.com/theirongolddev/xpdash/internal/source"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write fetched records to a JSON snapshot file",
	Long:  "Write fetched records to a JSON snapshot file, readable later with --input.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	res, err := loadRecords(cmd.Context())
	if err != nil {
		return err
	}
	if err := source.WriteSnapshot(args[0], res.Snapshot); err != nil {
		return err
	}
	fmt.Printf("  Wrote %s transactions and %s progress records to %s\n",
		cli.FormatNumber(int64(len(res.Snapshot.Transactions))),
		cli.FormatNumber(int64(len(res.Snapshot.Progress))),
		args[0])
	return nil
}
