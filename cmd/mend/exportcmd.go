package main

import (
	"fmt"

	"mend/internal/export"

	"github.com/spf13/cobra"
)

var (
	exportFormat   string
	exportOut      string
	exportCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the room's healing and debugging history",
	Long: `Writes a point-in-time report of the room's graph summary, healing
actions with their step outcomes, and debug sessions.

Examples:
  mend export --out report.json
  mend export --format yaml --compress --out report.yaml`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Report format: json or yaml")
	exportCmd.Flags().StringVar(&exportOut, "out", "mend-report.json", "Output path")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "Compress the report with zstd")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	path, err := eng.Exporter.WriteReport(exportOut, export.Options{
		Format:   export.Format(exportFormat),
		Compress: exportCompress,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", path)
	return nil
}
