package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/recoup-dev/recoup/internal/fs"
	"github.com/recoup-dev/recoup/internal/fuse"
	"github.com/recoup-dev/recoup/pkg/report"
	"github.com/spf13/cobra"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <image> <report-file>",
		Short: "Browse the files of a carve report without extracting them",
		Long: `The 'mount' command exposes the files listed in a carve report as a
read-only filesystem backed by the original image, so recovered content
can be inspected in place.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "directory where the filesystem will be mounted (derived from the report name by default)")
	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	f, err := fs.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	reportFile, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer reportFile.Close()

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = defaultMountpoint(reportFile.Name())
	}

	objects, err := report.ReadFileObjects(bufio.NewReader(reportFile))
	if err != nil {
		return err
	}

	entries := make([]fuse.Entry, len(objects))
	for i, o := range objects {
		runs := o.ByteRuns.Runs
		if len(runs) < 1 {
			return fmt.Errorf("invalid report file")
		}
		entries[i] = fuse.Entry{
			Name:   o.Filename,
			Offset: runs[0].ImgOffset,
			Size:   runs[0].Length,
		}
	}
	return fuse.Mount(mountpoint, f, entries)
}

// defaultMountpoint derives a mountpoint name from the report file name
// by stripping its extension.
func defaultMountpoint(reportFileName string) string {
	base := filepath.Base(reportFileName)
	ext := filepath.Ext(base)
	mountpoint := strings.TrimSuffix(base, ext)
	if ext == "" {
		mountpoint += "_mnt"
	}
	return mountpoint
}
