package ports

import (
	"context"
	"time"

	"github.com/Skryldev/bark-lab/domain/model"
)

// SoundAnalyzer defines the main analysis interface
type SoundAnalyzer interface {
	// AnalyzeFile analyzes a single recording
	AnalyzeFile(ctx context.Context, inputPath string, opts ...Option) (*model.AnalysisResult, error)

	// AnalyzeBatch analyzes multiple recordings concurrently
	AnalyzeBatch(ctx context.Context, jobs []model.BatchJob) (<-chan model.BatchResult, error)
}

// SignalReader decodes a waveform file into a mono amplitude signal
type SignalReader interface {
	// ReadSignal decodes path into absolute amplitudes at a fixed rate.
	// Stereo input is rejected.
	ReadSignal(ctx context.Context, path string) (*model.Signal, error)
}

// FFmpegExecutor is the abstraction for FFmpeg command execution
type FFmpegExecutor interface {
	// Execute runs an ffmpeg command with the given arguments
	Execute(ctx context.Context, args []string) error

	// Probe runs ffprobe and returns JSON output
	Probe(ctx context.Context, inputPath string) ([]byte, error)
}

// StorageProvider abstracts filesystem operations
type StorageProvider interface {
	// Exists checks if a path exists
	Exists(ctx context.Context, path string) (bool, error)

	// IsDir reports whether path is a directory
	IsDir(ctx context.Context, path string) (bool, error)

	// Size returns file size in bytes
	Size(ctx context.Context, path string) (int64, error)

	// Glob returns files in dir matching pattern, sorted
	Glob(ctx context.Context, dir, pattern string) ([]string, error)

	// Copy duplicates src to dst, creating parent directories
	Copy(ctx context.Context, src, dst string) error

	// Remove deletes a file
	Remove(ctx context.Context, path string) error

	// TempFile creates a temporary file and returns its path
	TempFile(ctx context.Context, dir, pattern string) (string, error)
}

// SummaryLog persists analysis results as a durable CSV log
type SummaryLog interface {
	// Append writes results to the log at path. A header is written only
	// when the file is new or rewrite is set; rewrite replaces the log.
	Append(ctx context.Context, path string, rows []model.AnalysisResult, rewrite bool) error

	// Read loads all results from the log at path
	Read(ctx context.Context, path string) ([]model.AnalysisResult, error)
}

// PlotRenderer turns plot descriptions into image files
type PlotRenderer interface {
	// RenderWaveform writes a per-file volume plot
	RenderWaveform(ctx context.Context, p model.WaveformPlot, path string) error

	// RenderSummary writes an aggregate period plot
	RenderSummary(ctx context.Context, p model.SummaryPlot, path string) error
}

// Option is the functional option type
type Option func(*model.AnalyzeOptions)

// WithCutoff sets the amplitude above which a sample counts as barking
func WithCutoff(cutoff float64) Option {
	return func(o *model.AnalyzeOptions) {
		o.Cutoff = cutoff
	}
}

// WithMaxGap sets the longest quiet stretch, in seconds, merged into a
// surrounding bark event
func WithMaxGap(seconds float64) Option {
	return func(o *model.AnalyzeOptions) {
		o.MaxGap = seconds
	}
}

// WithUndersample sets the plotting stride (every n-th sample)
func WithUndersample(n int) Option {
	return func(o *model.AnalyzeOptions) {
		if n > 0 {
			o.Undersample = n
		}
	}
}

// WithPlotPath sets the plot destination; "auto" derives it from the input
// name, empty disables plotting
func WithPlotPath(path string) Option {
	return func(o *model.AnalyzeOptions) {
		o.PlotPath = path
	}
}

// WithWorkers sets the number of concurrent workers for batch analysis
func WithWorkers(n int) Option {
	return func(o *model.AnalyzeOptions) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithRewrite re-analyzes processed files and replaces the summary log
func WithRewrite(rewrite bool) Option {
	return func(o *model.AnalyzeOptions) {
		o.Rewrite = rewrite
	}
}

// WithTimeout bounds a single file's analysis
func WithTimeout(d time.Duration) Option {
	return func(o *model.AnalyzeOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}
