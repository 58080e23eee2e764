package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/recoup-dev/recoup/internal/carve"
	fmtutil "github.com/recoup-dev/recoup/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefineFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List all supported file formats",
		Long: `The 'formats' command displays a table of all file formats currently
supported by the recovery engine, with the magic-byte signatures used
for detection and the per-type size bound.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunFormats,
	}
}

func RunFormats(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tEXT\tHEADER\tFOOTER\tMAX SIZE")

	for _, sig := range carve.DefaultSignatures() {
		footer := "-"
		if len(sig.Footer) > 0 {
			footer = hex.EncodeToString(sig.Footer)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			sig.Type,
			sig.Ext,
			hex.EncodeToString(sig.Header),
			footer,
			fmtutil.FormatBytes(int64(sig.MaxSize)),
		)
	}
	return w.Flush()
}
