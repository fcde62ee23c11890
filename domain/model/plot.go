package model

import "time"

// WaveformPlot is an explicit description of a per-file volume plot. The
// renderer consumes it as a value: there is no shared figure state.
type WaveformPlot struct {
	Title string

	// Times are sample offsets in seconds, Amplitudes the matching volume
	// values, already undersampled for display.
	Times      []float64
	Amplitudes []float64

	// Cutoff is drawn as a horizontal threshold line
	Cutoff float64
}

// DaySummary is one day's aggregated analysis results.
type DaySummary struct {
	Day time.Time

	// Means over the day's recordings, in seconds
	MeanTotal float64
	MeanBark  float64

	// BarkPercent is mean bark over mean total, 0..100
	BarkPercent float64
}

// SummaryPlot describes the aggregate plot for one period (month or year).
type SummaryPlot struct {
	Title string

	// Period totals in seconds, for the headline caption
	TotalTime float64
	BarkTime  float64

	Days []DaySummary
}
