package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/recoup-dev/recoup/internal/carve"
	"github.com/recoup-dev/recoup/internal/env"
	"github.com/recoup-dev/recoup/internal/logger"
	"github.com/recoup-dev/recoup/pkg/report"
	fmtutil "github.com/recoup-dev/recoup/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <input> <output-dir> [types]",
		Short: "Recover embedded files from an image, blob or device",
		Long: `The 'scan' command searches the input for known file signatures and
recovers every recognizable embedded file into the output directory.
The optional types argument is "all" (default), "images", or a
comma-separated list of type tags (e.g. "jpeg,png,sqlite").`,
		Args:         cobra.RangeArgs(2, 3),
		SilenceUsage: true,
		RunE:         RunScan,
	}

	cmd.Flags().String("chunk-size", "1MB", "read granularity of the scan")
	cmd.Flags().StringP("report", "r", "", "write an XML carve report to the given path")
	cmd.Flags().String("log-level", "INFO", "minimum level of the scan log")
	cmd.Flags().Bool("no-log", false, "disable the scan log file")

	return cmd
}

func RunScan(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputDir := args[1]

	types, err := parseTypes(args)
	if err != nil {
		return err
	}

	chunkSizeStr, _ := cmd.Flags().GetString("chunk-size")
	chunkSize, err := fmtutil.ParseBytes(chunkSizeStr)
	if err != nil {
		return fmt.Errorf("invalid chunk size: %w", err)
	}

	session := genSessionID()

	var logFilePath string
	if noLog, _ := cmd.Flags().GetBool("no-log"); !noLog {
		logFilePath = filepath.Join(outputDir, session+".log")
	}

	logLevel, _ := cmd.Flags().GetString("log-level")

	log, logFile, err := logger.Setup(logFilePath, logger.ParseLevel(logLevel))
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	carver, err := carve.New(outputDir, carve.Options{
		ChunkSize: int(chunkSize),
		Types:     types,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	fmt.Println("[INFO] Starting scanning operation...")
	fmt.Printf("[INFO] Source: \t%s\n", absPath(inputPath))
	fmt.Printf("[INFO] File Types: \t%s\n", strings.Join(carver.Registry().Types(), ","))
	fmt.Printf("[INFO] Destination: \t%s\n", absPath(outputDir))
	fmt.Printf("[INFO] Scanning for %d signatures...\n", len(carver.Registry().Signatures()))

	start := time.Now()

	files, err := carver.Scan(inputPath)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, f := range files {
		fmt.Printf("%-8s %-48s %10s\n", f.Type, f.Path, fmtutil.FormatBytes(int64(f.Size)))
	}
	fmt.Println()
	fmt.Println("[INFO] Scan completed!")
	fmt.Printf("[INFO] Files found: \t%d\n", len(files))
	fmt.Printf("[INFO] Duration: \t%s\n", formatDurationHMS(time.Since(start)))

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := writeReport(reportPath, inputPath, files); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("[INFO] Report saved to: \t%s\n", absPath(reportPath))
	}
	return nil
}

// parseTypes interprets the optional third positional argument.
func parseTypes(args []string) ([]string, error) {
	if len(args) < 3 {
		return nil, nil
	}
	switch token := strings.TrimSpace(args[2]); token {
	case "", "all":
		return nil, nil
	case "images":
		return carve.ImageTypes, nil
	default:
		return strings.Split(token, ","), nil
	}
}

func writeReport(path, imagePath string, files []carve.CarvedFile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var imageSize uint64
	if finfo, err := os.Stat(imagePath); err == nil {
		imageSize = uint64(finfo.Size())
	}

	w := report.NewWriter(f)
	defer w.Close()

	err = w.WriteHeader(report.Header{
		XMLOutput: report.XMLOutputVersion,
		Metadata:  report.DefaultMetadata,
		Creator: report.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: report.GetExecEnv(),
		},
		Source: report.Source{
			ImageFilename: absPath(imagePath),
			ImageSize:     imageSize,
		},
	})
	if err != nil {
		return err
	}

	for _, cf := range files {
		err := w.WriteFileObject(report.FileObject{
			Filename: filepath.Base(cf.Path),
			FileSize: cf.Size,
			Hash:     report.HashDigest{Type: "blake3", Value: cf.Hash},
			ByteRuns: report.ByteRuns{
				Runs: []report.ByteRun{{
					Offset:    cf.Offset,
					ImgOffset: cf.Offset,
					Length:    cf.Size,
				}},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// genSessionID creates a unique name for a scan session, in the form
// "scan_YYYYMMDD_HHMMSS".
func genSessionID() string {
	return "scan_" + time.Now().Format("20060102_150405")
}

// formatDurationHMS formats a duration as HH:MM:SS, or fractional
// seconds for sub-second runs.
func formatDurationHMS(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	totalSeconds := int64(d.Seconds())

	return fmt.Sprintf("%02d:%02d:%02d",
		totalSeconds/3600,
		(totalSeconds%3600)/60,
		totalSeconds%60)
}
