package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var scanIgnoreDirs = map[string]bool{
	".git":         true,
	".mend":        true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a codebase and track discovered dependencies",
	Long: `Walks the given directory (default: current), regex-scans source files
for import statements and outbound API calls, and records an edge for each
match. This is best-effort static analysis; missed matches are expected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	scanRoot := "."
	if len(args) > 0 {
		scanRoot = args[0]
	}

	logger := newLogger()
	eng := mustGetEngine(mustGetRoot(), logger)
	defer eng.Close()

	files, err := collectFiles(scanRoot, eng.Config.Scan.MaxFileSizeBytes)
	if err != nil {
		return err
	}

	result, err := eng.Scanner.ScanCodebase(newContext(), files)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printResult(result)
	}
	fmt.Printf("Scanned %d files (%d skipped), tracked %d edges\n",
		result.FilesScanned, result.FilesSkipped, result.EdgesTracked)
	return nil
}

func collectFiles(root string, maxSize int) (map[string]string, error) {
	files := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if scanIgnoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if maxSize > 0 && info.Size() > int64(maxSize) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files[strings.ReplaceAll(rel, string(filepath.Separator), "/")] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}
