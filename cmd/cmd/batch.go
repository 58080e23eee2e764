package cmd

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/recoup-dev/recoup/internal/carve"
	"github.com/recoup-dev/recoup/internal/logger"
	"github.com/recoup-dev/recoup/pkg/pbar"
	"github.com/spf13/cobra"
)

func DefineBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <source-dir> <output-dir>",
		Short: "Recursively scan a directory tree of extracted files and blobs",
		Long: `The 'batch' command walks a directory tree (e.g. an exploded device
backup) and scans every file that looks like it may wrap recoverable
content: database, raw and binary extensions, large opaque blobs, and
anything under well-known media folders.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunBatch,
	}

	cmd.Flags().String("log-level", "INFO", "minimum level of the scan log")
	cmd.Flags().Bool("no-log", false, "disable the scan log file")

	return cmd
}

func RunBatch(cmd *cobra.Command, args []string) error {
	sourceDir := args[0]
	outputDir := args[1]

	var logFilePath string
	if noLog, _ := cmd.Flags().GetBool("no-log"); !noLog {
		logFilePath = filepath.Join(outputDir, genSessionID()+".log")
	}
	logLevel, _ := cmd.Flags().GetString("log-level")

	log, logFile, err := logger.Setup(logFilePath, logger.ParseLevel(logLevel))
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	carver, err := carve.New(outputDir, carve.Options{Logger: log})
	if err != nil {
		return err
	}

	totalBytes, err := treeSize(sourceDir)
	if err != nil {
		return err
	}

	fmt.Println("[INFO] Starting batch scan...")
	fmt.Printf("[INFO] Source: \t%s\n", absPath(sourceDir))
	fmt.Printf("[INFO] Destination: \t%s\n", absPath(outputDir))

	bar := pbar.New(totalBytes)

	total, err := carver.ScanDirectory(cmd.Context(), sourceDir,
		func(path string, size int64, scanned bool, recovered int) {
			bar.ProcessedBytes += size
			bar.FilesFound += recovered
			bar.Render(false)
		})
	bar.Render(true)
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Println("[INFO] Batch scan completed!")
	fmt.Printf("[INFO] Files recovered: \t%d\n", total)
	return nil
}

// treeSize sums the sizes of every regular file under dir.
func treeSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		finfo, err := d.Info()
		if err != nil {
			return err
		}
		total += finfo.Size()
		return nil
	})
	return total, err
}
