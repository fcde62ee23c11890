package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/application/pipeline"
	"github.com/Skryldev/bark-lab/domain/model"
	"github.com/Skryldev/bark-lab/domain/ports"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
	"github.com/Skryldev/bark-lab/pkg/progress"
	"github.com/Skryldev/bark-lab/pkg/retry"
)

// SummaryFileName is the per-directory analysis log.
const SummaryFileName = "summary.csv"

// AnalyzerService is the main application service implementing
// ports.SoundAnalyzer plus the directory-level batch and summary flows.
type AnalyzerService struct {
	pipeline   *pipeline.Pipeline
	workerPool *pipeline.WorkerPool
	storage    ports.StorageProvider
	summaryLog ports.SummaryLog
	plotter    ports.PlotRenderer
	reporter   progress.Reporter
	log        *logger.Logger
}

// Config holds AnalyzerService configuration
type Config struct {
	Executor    ports.FFmpegExecutor
	Reader      ports.SignalReader
	Storage     ports.StorageProvider
	SummaryLog  ports.SummaryLog
	Plotter     ports.PlotRenderer
	Reporter    progress.Reporter
	Logger      *logger.Logger
	Workers     int
	RetryConfig retry.Config
}

// NewAnalyzerService creates a new AnalyzerService
func NewAnalyzerService(cfg Config) (*AnalyzerService, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("FFmpegExecutor is required")
	}
	if cfg.Reader == nil {
		return nil, fmt.Errorf("SignalReader is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("StorageProvider is required")
	}
	if cfg.SummaryLog == nil {
		return nil, fmt.Errorf("SummaryLog is required")
	}
	if cfg.Plotter == nil {
		return nil, fmt.Errorf("PlotRenderer is required")
	}

	log := cfg.Logger
	if log == nil {
		var err error
		log, err = logger.New(false)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.NoopReporter{}
	}

	retryCfg := cfg.RetryConfig
	if retryCfg.MaxAttempts == 0 {
		retryCfg = retry.DefaultConfig()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	p := pipeline.NewPipeline(cfg.Executor, cfg.Reader, cfg.Storage, cfg.Plotter, retryCfg, log)
	wp := pipeline.NewWorkerPool(p, workers, log)

	return &AnalyzerService{
		pipeline:   p,
		workerPool: wp,
		storage:    cfg.Storage,
		summaryLog: cfg.SummaryLog,
		plotter:    cfg.Plotter,
		reporter:   reporter,
		log:        log,
	}, nil
}

// AnalyzeFile analyzes a single recording and returns its result without
// touching the summary log.
func (s *AnalyzerService) AnalyzeFile(ctx context.Context, inputPath string, opts ...ports.Option) (*model.AnalysisResult, error) {
	options := model.DefaultAnalyzeOptions()
	for _, o := range opts {
		o(options)
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	s.log.Info("starting analysis",
		zap.String("input", inputPath),
		zap.Float64("cutoff", options.Cutoff),
		zap.Float64("max_gap_seconds", options.MaxGap),
	)

	job := &pipeline.Job{
		ID:        generateJobID(inputPath),
		InputPath: inputPath,
		Options:   options,
		Reporter:  s.reporter,
		Log:       s.log,
	}

	result, err := s.pipeline.Run(ctx, job)
	if err != nil {
		s.log.Error("analysis failed",
			zap.String("input", inputPath),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("analysis completed",
		zap.String("input", inputPath),
		zap.Float64("total_seconds", result.TotalTime),
		zap.Float64("bark_seconds", result.BarkTime),
	)
	return result, nil
}

// AnalyzeBatch analyzes multiple recordings concurrently
func (s *AnalyzerService) AnalyzeBatch(ctx context.Context, jobs []model.BatchJob) (<-chan model.BatchResult, error) {
	if len(jobs) == 0 {
		ch := make(chan model.BatchResult)
		close(ch)
		return ch, nil
	}

	s.log.Info("starting batch analysis",
		zap.Int("job_count", len(jobs)),
	)
	return s.workerPool.Run(ctx, jobs, s.reporter)
}

// AnalyzePath analyzes a single recording or a whole directory of them and
// records the results in the directory's summary log. Directory mode skips
// already processed recordings (those with a plot image sibling) unless
// rewrite is set, analyzes the rest on the worker pool, and appends the
// CSV once after every worker finishes. A file's failure never aborts the
// batch: all failures come back merged beside the successful results.
func (s *AnalyzerService) AnalyzePath(ctx context.Context, inputPath string, opts ...ports.Option) ([]model.AnalysisResult, error) {
	options := model.DefaultAnalyzeOptions()
	for _, o := range opts {
		o(options)
	}

	exists, err := s.storage.Exists(ctx, inputPath)
	if err != nil {
		return nil, pkgerrors.NewIOError(inputPath, "failed to check input path", err)
	}
	if !exists {
		return nil, pkgerrors.NewNotFoundError(inputPath, pkgerrors.PathKindUnknown)
	}

	isDir, err := s.storage.IsDir(ctx, inputPath)
	if err != nil {
		return nil, pkgerrors.NewIOError(inputPath, "failed to stat input path", err)
	}

	if !isDir {
		result, err := s.AnalyzeFile(ctx, inputPath, opts...)
		if err != nil {
			return nil, err
		}
		logPath := filepath.Join(filepath.Dir(inputPath), SummaryFileName)
		if err := s.summaryLog.Append(ctx, logPath, []model.AnalysisResult{*result}, false); err != nil {
			return nil, err
		}
		return []model.AnalysisResult{*result}, nil
	}

	files, err := s.pendingRecordings(ctx, inputPath, options.Rewrite)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.log.Info("no recordings to analyze", zap.String("dir", inputPath))
		return nil, nil
	}

	jobs := make([]model.BatchJob, len(files))
	for i, file := range files {
		jobs[i] = model.BatchJob{
			ID:        generateJobID(file),
			InputPath: file,
			Options:   options,
		}
	}

	resultsCh, err := s.AnalyzeBatch(ctx, jobs)
	if err != nil {
		return nil, err
	}

	var (
		results []model.AnalysisResult
		errs    error
	)
	for res := range resultsCh {
		if res.Err != nil {
			errs = multierr.Append(errs, res.Err)
			continue
		}
		results = append(results, *res.Result)
	}

	if len(results) > 0 {
		logPath := filepath.Join(inputPath, SummaryFileName)
		if err := s.summaryLog.Append(ctx, logPath, results, options.Rewrite); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return results, errs
}

// pendingRecordings lists the directory's recordings still to analyze; a
// recording with an existing plot image counts as processed.
func (s *AnalyzerService) pendingRecordings(ctx context.Context, dir string, rewrite bool) ([]string, error) {
	files, err := s.storage.Glob(ctx, dir, "*.mp4")
	if err != nil {
		return nil, pkgerrors.NewIOError(dir, "failed to list recordings", err)
	}
	if rewrite {
		return files, nil
	}

	var pending []string
	for _, file := range files {
		plotPath := file[:len(file)-len(filepath.Ext(file))] + ".png"
		processed, err := s.storage.Exists(ctx, plotPath)
		if err != nil {
			return nil, pkgerrors.NewIOError(plotPath, "failed to check plot image", err)
		}
		if !processed {
			pending = append(pending, file)
		}
	}
	return pending, nil
}

func generateJobID(input string) string {
	return fmt.Sprintf("job-%d-%s", time.Now().UnixNano(), sanitize(input))
}

func sanitize(s string) string {
	if len(s) > 20 {
		s = s[len(s)-20:]
	}
	result := make([]byte, 0, len(s))
	for _, c := range []byte(s) {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
