package barklab

import (
	"context"

	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/application/usecase"
	"github.com/Skryldev/bark-lab/domain/model"
	"github.com/Skryldev/bark-lab/domain/ports"
	"github.com/Skryldev/bark-lab/infrastructure/ffmpeg"
	"github.com/Skryldev/bark-lab/infrastructure/plot"
	"github.com/Skryldev/bark-lab/infrastructure/storage"
	"github.com/Skryldev/bark-lab/infrastructure/summary"
	"github.com/Skryldev/bark-lab/infrastructure/wave"
	"github.com/Skryldev/bark-lab/pkg/logger"
	"github.com/Skryldev/bark-lab/pkg/progress"
	"github.com/Skryldev/bark-lab/pkg/retry"
)

// Re-export types for convenient use by callers
type (
	AnalyzeOptions = model.AnalyzeOptions
	AnalysisResult = model.AnalysisResult
	BatchJob       = model.BatchJob
	BatchResult    = model.BatchResult
	CopyOptions    = usecase.CopyOptions
	ProgressUpdate = progress.Update
	ProgressStage  = progress.Stage
)

// Re-export pipeline stages
const (
	StageValidate  = progress.StageValidate
	StageExtract   = progress.StageExtract
	StageDecode    = progress.StageDecode
	StageClassify  = progress.StageClassify
	StageAggregate = progress.StageAggregate
	StagePlot      = progress.StagePlot
	StageDone      = progress.StageDone
)

// Re-export option functions
var (
	WithCutoff      = ports.WithCutoff
	WithMaxGap      = ports.WithMaxGap
	WithUndersample = ports.WithUndersample
	WithPlotPath    = ports.WithPlotPath
	WithWorkers     = ports.WithWorkers
	WithRewrite     = ports.WithRewrite
	WithTimeout     = ports.WithTimeout
)

// Config holds top-level configuration for the analyzer
type Config struct {
	// FFmpegPath is the path to ffmpeg binary (auto-detected if empty)
	FFmpegPath string

	// FFprobePath is the path to ffprobe binary (auto-detected if empty)
	FFprobePath string

	// Logger is an optional custom logger. Uses production zap if nil.
	Logger *logger.Logger

	// ZapLogger allows passing a *zap.Logger directly
	ZapLogger *zap.Logger

	// ProgressCh is an optional channel for receiving progress updates
	ProgressCh chan<- ProgressUpdate

	// Workers sets the number of parallel analysis workers (default: 4)
	Workers int

	// RetryConfig overrides default soundtrack-extraction retry behavior
	RetryConfig *retry.Config
}

// Analyzer is the main entry point
type Analyzer struct {
	service  *usecase.AnalyzerService
	transfer *usecase.TransferService
	archiver *usecase.ArchiveService
	log      *logger.Logger
}

// New creates a new Analyzer with the given configuration
func New(cfg Config) (*Analyzer, error) {
	log := cfg.Logger
	if log == nil && cfg.ZapLogger != nil {
		log = logger.FromZap(cfg.ZapLogger)
	}
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, err
		}
	}

	exec, err := ffmpeg.NewExecutor(ffmpeg.ExecutorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	store := storage.NewLocalStorage()

	var reporter progress.Reporter = progress.NoopReporter{}
	if cfg.ProgressCh != nil {
		reporter = progress.NewChannelReporter(cfg.ProgressCh)
	}

	retryCfg := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryCfg = *cfg.RetryConfig
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	svc, err := usecase.NewAnalyzerService(usecase.Config{
		Executor:    exec,
		Reader:      wave.NewReader(),
		Storage:     store,
		SummaryLog:  summary.NewCSVLog(),
		Plotter:     plot.NewRenderer(),
		Reporter:    reporter,
		Logger:      log,
		Workers:     workers,
		RetryConfig: retryCfg,
	})
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		service:  svc,
		transfer: usecase.NewTransferService(store, log),
		archiver: usecase.NewArchiveService(store, workers, log),
		log:      log,
	}, nil
}

// AnalyzeFile analyzes a single recording
func (a *Analyzer) AnalyzeFile(ctx context.Context, inputPath string, opts ...ports.Option) (*AnalysisResult, error) {
	return a.service.AnalyzeFile(ctx, inputPath, opts...)
}

// AnalyzePath analyzes a recording or a directory of recordings and
// records the results in the directory's summary log
func (a *Analyzer) AnalyzePath(ctx context.Context, inputPath string, opts ...ports.Option) ([]AnalysisResult, error) {
	return a.service.AnalyzePath(ctx, inputPath, opts...)
}

// AnalyzeBatch analyzes multiple recordings concurrently
func (a *Analyzer) AnalyzeBatch(ctx context.Context, jobs []BatchJob) (<-chan BatchResult, error) {
	return a.service.AnalyzeBatch(ctx, jobs)
}

// Summarize renders the aggregate plot for a period's analysis logs and
// returns the image path
func (a *Analyzer) Summarize(ctx context.Context, inputPath string) (string, error) {
	return a.service.Summarize(ctx, inputPath)
}

// Copy transfers recordings from a camera card directory into the archive
// tree under destRoot
func (a *Analyzer) Copy(ctx context.Context, sourceDir, destRoot string, opts CopyOptions) error {
	return a.transfer.Copy(ctx, sourceDir, destRoot, opts)
}

// Archive bundles processed recordings into per-month tar.gz archives
func (a *Analyzer) Archive(ctx context.Context, path string, archiveAll bool) error {
	return a.archiver.Archive(ctx, path, archiveAll)
}

// Close flushes the logger and releases resources
func (a *Analyzer) Close() {
	_ = a.log.Sync()
}
