// Package summary persists analysis results as a CSV log with columns
// timestamp, total_time, bark_time.
package summary

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/Skryldev/bark-lab/domain/model"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

// TimestampLayout is the round-trippable timestamp format of the log.
const TimestampLayout = "2006-01-02 15:04:05"

var header = []string{"timestamp", "total_time", "bark_time"}

// CSVLog implements ports.SummaryLog on local files
type CSVLog struct{}

// NewCSVLog creates a summary log
func NewCSVLog() *CSVLog {
	return &CSVLog{}
}

// Append writes rows to the log at path. The header is written only when
// the file does not exist yet or rewrite is set; rewrite truncates the log
// first. Rows otherwise append headerless.
func (l *CSVLog) Append(ctx context.Context, path string, rows []model.AnalysisResult, rewrite bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	fresh := rewrite || os.IsNotExist(statErr)

	flags := os.O_WRONLY | os.O_CREATE
	if fresh {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return pkgerrors.NewIOError(path, "failed to open summary log", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return pkgerrors.NewIOError(path, "failed to write summary header", err)
		}
	}

	for _, row := range rows {
		record := []string{
			row.Timestamp.Format(TimestampLayout),
			strconv.FormatFloat(row.TotalTime, 'f', -1, 64),
			strconv.FormatFloat(row.BarkTime, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return pkgerrors.NewIOError(path, "failed to write summary row", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return pkgerrors.NewIOError(path, "failed to flush summary log", err)
	}
	return nil
}

// Read loads all results from the log at path. A leading header row is
// skipped; rows that do not parse are rejected rather than dropped.
func (l *CSVLog) Read(ctx context.Context, path string) ([]model.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.NewNotFoundError(path, pkgerrors.PathKindFile)
		}
		return nil, pkgerrors.NewIOError(path, "failed to open summary log", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, pkgerrors.NewIOError(path, "failed to parse summary log", err)
	}

	var rows []model.AnalysisResult
	for i, record := range records {
		if i == 0 && len(record) > 0 && record[0] == header[0] {
			continue
		}
		if len(record) != 3 {
			return nil, pkgerrors.NewValidationError("row", record, "summary row must have 3 columns")
		}

		ts, err := time.Parse(TimestampLayout, record[0])
		if err != nil {
			return nil, pkgerrors.NewValidationError("timestamp", record[0], "unparsable summary timestamp")
		}
		total, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, pkgerrors.NewValidationError("total_time", record[1], "unparsable duration")
		}
		bark, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, pkgerrors.NewValidationError("bark_time", record[2], "unparsable duration")
		}

		rows = append(rows, model.AnalysisResult{
			Timestamp: ts,
			TotalTime: total,
			BarkTime:  bark,
		})
	}
	return rows, nil
}
