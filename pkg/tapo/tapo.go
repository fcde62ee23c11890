// Package tapo parses the naming convention of TAPO security-camera
// recordings: `YYYYMMDD_HHMMSS_<suffix>.mp4`.
package tapo

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

const timestampLayout = "20060102_150405"

// ParseTimestamp extracts the recording timestamp from a camera file path,
// e.g. "20231215_093653_tp00033.mp4" -> 2023-12-15 09:36:53.
func ParseTimestamp(path string) (time.Time, error) {
	name := filepath.Base(path)
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return time.Time{}, pkgerrors.NewValidationError(
			"filename", name, "not a camera recording name")
	}

	stamp := parts[0] + "_" + strings.TrimSuffix(parts[1], filepath.Ext(parts[1]))
	ts, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return time.Time{}, pkgerrors.NewValidationError(
			"filename", name, "no parsable timestamp prefix")
	}
	return ts, nil
}

// MonthDir returns the archive directory for a recording timestamp:
// <root>/<year>/<month>, with the month unpadded to match existing layouts.
func MonthDir(root string, ts time.Time) string {
	return filepath.Join(root,
		strconv.Itoa(ts.Year()),
		strconv.Itoa(int(ts.Month())),
	)
}

// IsRecording reports whether a file name looks like an intact camera
// recording. Names containing "xx" mark interrupted transfers and are
// skipped.
func IsRecording(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), ".mp4") {
		return false
	}
	return !strings.Contains(name, "xx")
}
