package model

import "time"

// Signal is a decoded mono waveform: non-negative amplitudes at a fixed
// sample interval. Timestamps are implicit: sample i sits at i/SampleRate
// seconds.
type Signal struct {
	Data       []float64
	SampleRate int
}

// Step returns the sample interval in seconds.
func (s *Signal) Step() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return 1.0 / float64(s.SampleRate)
}

// Time returns the timestamp offset of sample i in seconds.
func (s *Signal) Time(i int) float64 {
	return float64(i) * s.Step()
}

// AnalyzeOptions holds all configuration for soundtrack analysis
type AnalyzeOptions struct {
	// Cutoff is the amplitude above which a sample counts as barking
	Cutoff float64

	// MaxGap is the longest below-cutoff stretch, in seconds, merged into
	// a surrounding bark event
	MaxGap float64

	// Undersample takes every n-th sample when plotting. Never applied to
	// the analysis itself.
	Undersample int

	// PlotPath is the summary plot destination. "auto" derives it from the
	// input name; empty disables plotting.
	PlotPath string

	// Timeout bounds a single file's analysis
	Timeout time.Duration

	// Workers bounds a batch run; 0 inherits the pool's configured default
	Workers int

	// Rewrite re-analyzes already processed files and replaces the summary
	// log instead of appending
	Rewrite bool

	// Retry (soundtrack extraction only)
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultAnalyzeOptions returns sane defaults
func DefaultAnalyzeOptions() *AnalyzeOptions {
	return &AnalyzeOptions{
		Cutoff:      5000,
		MaxGap:      5,
		Undersample: 10,
		PlotPath:    "auto",
		Timeout:     10 * time.Minute,
		Workers:     0,
		Rewrite:     false,
		MaxRetries:  3,
		RetryDelay:  time.Second,
	}
}

// AnalysisResult is the per-file outcome: the recording timestamp taken
// from the file name plus the measured durations, in seconds.
type AnalysisResult struct {
	Timestamp time.Time
	TotalTime float64
	BarkTime  float64

	InputPath string
	PlotPath  string
}

// BarkFraction returns the barking share of the recording.
func (r *AnalysisResult) BarkFraction() float64 {
	if r.TotalTime == 0 {
		return 0
	}
	return r.BarkTime / r.TotalTime
}

// BatchJob represents one file in a batch analysis
type BatchJob struct {
	ID        string
	InputPath string
	Options   *AnalyzeOptions
}

// BatchResult holds the outcome of one batch job
type BatchResult struct {
	JobID  string
	Result *AnalysisResult
	Err    error
}
