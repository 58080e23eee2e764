package pbar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/recoup-dev/recoup/pkg/util/format"
)

const minRefreshRate = 500 * time.Millisecond

// ProgressBar renders a single-line progress bar over a known byte
// total, tracking recovered-file counts along the way.
type ProgressBar struct {
	TotalBytes     int64
	ProcessedBytes int64
	FilesFound     int

	startTime     time.Time
	lastUpdate    time.Time
	lastProcessed int64
}

func New(totalBytes int64) *ProgressBar {
	return &ProgressBar{
		TotalBytes: totalBytes,
		startTime:  time.Now(),
		lastUpdate: time.Unix(0, 0),
	}
}

// Render redraws the progress line, rate-limited unless forced.
func (pb *ProgressBar) Render(force bool) {
	if !force && time.Since(pb.lastUpdate) < minRefreshRate {
		return
	}
	if pb.TotalBytes <= 0 {
		return
	}

	percentage := float64(pb.ProcessedBytes) / float64(pb.TotalBytes) * 100

	const barLength = 20
	filled := int(barLength * percentage / 100)
	var bar string
	if filled >= barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barLength-filled-1)
	}

	speed := float64(pb.ProcessedBytes-pb.lastProcessed) / time.Since(pb.lastUpdate).Seconds()

	var eta string
	if pb.ProcessedBytes > 0 && speed > 0 {
		remaining := float64(pb.TotalBytes-pb.ProcessedBytes) / speed
		eta = fmt.Sprintf("%02d:%02d:%02d remaining",
			int(remaining/3600),
			int(remaining/60)%60,
			int(remaining)%60)
	} else {
		eta = "calculating..."
	}

	pb.lastUpdate = time.Now()
	pb.lastProcessed = pb.ProcessedBytes

	// \r redraws in place; trailing spaces clear leftovers from a
	// previously longer line.
	fmt.Fprintf(os.Stdout, "\r[INFO] Progress: [%s] %3.0f%% (%s/%s) | Files Found: %d | @ %.2fMB/s [%s]    ",
		bar,
		percentage,
		format.FormatBytes(pb.ProcessedBytes),
		format.FormatBytes(pb.TotalBytes),
		pb.FilesFound,
		speed/(1024*1024),
		eta)
	os.Stdout.Sync()
}

// Finish terminates the progress line.
func (pb *ProgressBar) Finish() {
	fmt.Println()
}
