package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/Skryldev/bark-lab/application/pipeline"
	"github.com/Skryldev/bark-lab/domain/model"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
)

// SummaryImageName is the aggregate plot written next to the logs.
const SummaryImageName = "summary.png"

// Summarize aggregates previously computed analysis logs for a period and
// renders the trend plot into the period's directory. The input may be a
// single summary CSV, a month directory holding one, or a year directory
// whose month subdirectories each hold one; the concatenated rows are
// handled uniformly. Returns the rendered image path.
func (s *AnalyzerService) Summarize(ctx context.Context, inputPath string) (string, error) {
	exists, err := s.storage.Exists(ctx, inputPath)
	if err != nil {
		return "", pkgerrors.NewIOError(inputPath, "failed to check input path", err)
	}
	if !exists {
		return "", pkgerrors.NewNotFoundError(inputPath, pkgerrors.PathKindUnknown)
	}

	isDir, err := s.storage.IsDir(ctx, inputPath)
	if err != nil {
		return "", pkgerrors.NewIOError(inputPath, "failed to stat input path", err)
	}

	var (
		logPaths  []string
		outputDir string
		title     string
	)
	switch {
	case !isDir:
		logPaths = []string{inputPath}
		outputDir = filepath.Dir(inputPath)
		title = periodTitle(filepath.Base(outputDir))

	default:
		monthLog := filepath.Join(inputPath, SummaryFileName)
		if ok, err := s.storage.Exists(ctx, monthLog); err != nil {
			return "", pkgerrors.NewIOError(monthLog, "failed to check summary log", err)
		} else if ok {
			logPaths = []string{monthLog}
			outputDir = inputPath
			title = periodTitle(filepath.Base(inputPath))
			break
		}

		yearLogs, err := s.storage.Glob(ctx, inputPath, filepath.Join("*", SummaryFileName))
		if err != nil {
			return "", pkgerrors.NewIOError(inputPath, "failed to list summary logs", err)
		}
		if len(yearLogs) == 0 {
			return "", pkgerrors.NewNotFoundError(
				filepath.Join(inputPath, SummaryFileName), pkgerrors.PathKindFile)
		}
		logPaths = yearLogs
		outputDir = inputPath
		title = filepath.Base(strings.TrimRight(inputPath, string(filepath.Separator)))
	}

	var rows []model.AnalysisResult
	for _, logPath := range logPaths {
		part, err := s.summaryLog.Read(ctx, logPath)
		if err != nil {
			return "", err
		}
		rows = append(rows, part...)
	}

	desc, err := BuildSummaryPlot(rows, title)
	if err != nil {
		return "", err
	}

	imagePath := filepath.Join(outputDir, SummaryImageName)
	if err := s.plotter.RenderSummary(ctx, desc, imagePath); err != nil {
		return "", err
	}

	s.log.Info("summary rendered",
		zap.String("image", imagePath),
		zap.Int("rows", len(rows)),
		zap.Int("days", len(desc.Days)),
	)
	return imagePath, nil
}

// BuildSummaryPlot reduces raw log rows into the period plot description:
// de-duplicated, sorted, grouped by calendar day with per-day means. Logs
// from overlapping periods may repeat rows, so de-duplication comes first.
func BuildSummaryPlot(rows []model.AnalysisResult, title string) (model.SummaryPlot, error) {
	if len(rows) == 0 {
		return model.SummaryPlot{}, pkgerrors.NewValidationError("rows", 0, "no analysis results to summarize")
	}

	type key struct {
		ts          int64
		total, bark float64
	}
	seen := make(map[key]struct{}, len(rows))
	unique := make([]model.AnalysisResult, 0, len(rows))
	for _, row := range rows {
		k := key{ts: row.Timestamp.Unix(), total: row.TotalTime, bark: row.BarkTime}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, row)
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Timestamp.Before(unique[j].Timestamp)
	})

	var totalSum, barkSum float64
	byDay := make(map[time.Time][]model.AnalysisResult)
	var dayOrder []time.Time
	for _, row := range unique {
		totalSum += row.TotalTime
		barkSum += row.BarkTime

		day := row.Timestamp.Truncate(24 * time.Hour)
		if _, ok := byDay[day]; !ok {
			dayOrder = append(dayOrder, day)
		}
		byDay[day] = append(byDay[day], row)
	}

	days := make([]model.DaySummary, 0, len(dayOrder))
	for _, day := range dayOrder {
		group := byDay[day]
		totals := make([]float64, len(group))
		barks := make([]float64, len(group))
		for i, row := range group {
			totals[i] = row.TotalTime
			barks[i] = row.BarkTime
		}

		meanTotal := stat.Mean(totals, nil)
		meanBark := stat.Mean(barks, nil)
		percent := 0.0
		if meanTotal > 0 {
			percent = meanBark / meanTotal * 100
		}

		days = append(days, model.DaySummary{
			Day:         day,
			MeanTotal:   meanTotal,
			MeanBark:    meanBark,
			BarkPercent: percent,
		})
	}

	caption := fmt.Sprintf("%s\nBarking: %s of %s (%.2f%%)",
		title,
		pipeline.FormatSeconds(barkSum),
		pipeline.FormatSeconds(totalSum),
		percentOf(barkSum, totalSum),
	)

	return model.SummaryPlot{
		Title:     caption,
		TotalTime: totalSum,
		BarkTime:  barkSum,
		Days:      days,
	}, nil
}

// periodTitle maps a month directory name (1-12) to the month name; any
// other name titles the plot as-is.
func periodTitle(name string) string {
	if n, err := strconv.Atoi(name); err == nil && n >= 1 && n <= 12 {
		return time.Month(n).String()
	}
	return name
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
