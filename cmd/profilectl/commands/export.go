package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut *string

func init() {
	exportOut = exportCmd.Flags().String("out", "", "The CSV file to write, defaults to EXPORT_FILE.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--out <path/to/output.csv>]",
	Short: "Writes every stored profile to a CSV file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cfg, log, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		path := *exportOut
		if path == "" {
			path = cfg.ExportFile
		}
		rows, err := a.Profiles.ExportToFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		log.Info("Export written", zap.String("path", path), zap.Int("rows", rows))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d profiles to %s\n", rows, path)
		return nil
	},
}
