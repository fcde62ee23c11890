package usecase_test

import (
	"context"
	"testing"

	"go.uber.org/multierr"

	"github.com/Skryldev/bark-lab/application/usecase"
	"github.com/Skryldev/bark-lab/domain/model"
	"github.com/Skryldev/bark-lab/domain/ports"
	"github.com/Skryldev/bark-lab/internal/mocks"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
)

type serviceFixture struct {
	executor *mocks.MockFFmpegExecutor
	reader   *mocks.MockSignalReader
	storage  *mocks.MockStorageProvider
	summary  *mocks.MockSummaryLog
	plotter  *mocks.MockPlotRenderer
	service  *usecase.AnalyzerService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		executor: &mocks.MockFFmpegExecutor{},
		reader:   &mocks.MockSignalReader{},
		storage:  &mocks.MockStorageProvider{},
		summary:  &mocks.MockSummaryLog{},
		plotter:  &mocks.MockPlotRenderer{},
	}
	svc, err := usecase.NewAnalyzerService(usecase.Config{
		Executor:   f.executor,
		Reader:     f.reader,
		Storage:    f.storage,
		SummaryLog: f.summary,
		Plotter:    f.plotter,
		Logger:     logger.NewNop(),
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("NewAnalyzerService() error = %v", err)
	}
	f.service = svc
	return f
}

func TestNewAnalyzerServiceRequiresPorts(t *testing.T) {
	_, err := usecase.NewAnalyzerService(usecase.Config{})
	if err == nil {
		t.Fatal("NewAnalyzerService(empty) = nil error, want missing port failure")
	}
}

func TestAnalyzeFile(t *testing.T) {
	f := newServiceFixture(t)
	f.reader.ReadSignalFunc = func(ctx context.Context, path string) (*model.Signal, error) {
		return &model.Signal{Data: []float64{6000, 6000, 100, 100}, SampleRate: 8000}, nil
	}

	result, err := f.service.AnalyzeFile(context.Background(),
		"/rec/20231215_093653_tp00033.wav", ports.WithPlotPath(""))
	if err != nil {
		t.Fatalf("AnalyzeFile() error = %v", err)
	}

	wantTotal := 3.0 / 8000.0
	if result.TotalTime != wantTotal {
		t.Errorf("TotalTime = %v, want %v", result.TotalTime, wantTotal)
	}
	if len(f.summary.Appended) != 0 {
		t.Errorf("AnalyzeFile wrote %d summary rows, want 0", len(f.summary.Appended))
	}
}

func TestAnalyzePathMissing(t *testing.T) {
	f := newServiceFixture(t)
	f.storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return false, nil
	}

	_, err := f.service.AnalyzePath(context.Background(), "/nowhere")
	if err == nil {
		t.Fatal("AnalyzePath(missing) = nil error, want not found")
	}
	if _, ok := pkgerrors.As[*pkgerrors.NotFoundError](err); !ok {
		t.Errorf("AnalyzePath(missing) error = %T, want *NotFoundError", err)
	}
}

func TestAnalyzePathFileAppendsToParentLog(t *testing.T) {
	f := newServiceFixture(t)

	results, err := f.service.AnalyzePath(context.Background(),
		"/archive/2023/12/20231215_093653_tp00033.wav", ports.WithPlotPath(""))
	if err != nil {
		t.Fatalf("AnalyzePath() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("AnalyzePath() = %d results, want 1", len(results))
	}
	if len(f.summary.Appended) != 1 {
		t.Fatalf("summary rows appended = %d, want 1", len(f.summary.Appended))
	}
	if len(f.summary.Rewrites) != 1 || f.summary.Rewrites[0] {
		t.Errorf("single file append must not rewrite the log")
	}
}

func TestAnalyzePathDirSkipsProcessed(t *testing.T) {
	f := newServiceFixture(t)
	f.storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/archive/2023/12", nil
	}
	f.storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/archive/2023/12/20231215_093653_tp00033.mp4",
			"/archive/2023/12/20231216_101500_tp00034.mp4",
		}, nil
	}
	// The first recording already has its plot image.
	f.storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return path != "/archive/2023/12/20231216_101500_tp00034.png", nil
	}

	results, err := f.service.AnalyzePath(context.Background(),
		"/archive/2023/12", ports.WithPlotPath(""))
	if err != nil {
		t.Fatalf("AnalyzePath() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("AnalyzePath() = %d results, want 1 (processed file skipped)", len(results))
	}
	if results[0].InputPath != "/archive/2023/12/20231216_101500_tp00034.mp4" {
		t.Errorf("analyzed %s, want the unprocessed recording", results[0].InputPath)
	}
	if len(f.summary.Appended) != 1 {
		t.Errorf("summary rows appended = %d, want 1", len(f.summary.Appended))
	}
}

func TestAnalyzePathDirRewriteAnalyzesAll(t *testing.T) {
	f := newServiceFixture(t)
	f.storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/archive/2023/12", nil
	}
	f.storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/archive/2023/12/20231215_093653_tp00033.mp4",
			"/archive/2023/12/20231216_101500_tp00034.mp4",
		}, nil
	}

	results, err := f.service.AnalyzePath(context.Background(),
		"/archive/2023/12", ports.WithPlotPath(""), ports.WithRewrite(true))
	if err != nil {
		t.Fatalf("AnalyzePath() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("AnalyzePath() = %d results, want 2", len(results))
	}
	if len(f.summary.Rewrites) != 1 || !f.summary.Rewrites[0] {
		t.Errorf("rewrite mode must replace the summary log")
	}
}

func TestAnalyzePathDirFailureDoesNotAbortBatch(t *testing.T) {
	f := newServiceFixture(t)
	f.storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/archive/2023/12", nil
	}
	f.storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/archive/2023/12/20231215_093653_tp00033.mp4",
			"/archive/2023/12/20231216_101500_tp00034.mp4",
			"/archive/2023/12/20231217_110000_tp00035.mp4",
		}, nil
	}
	f.executor.ExecuteFunc = func(ctx context.Context, args []string) error {
		for _, a := range args {
			if a == "/archive/2023/12/20231216_101500_tp00034.mp4" {
				return pkgerrors.NewFFmpegError("conversion failed", args, 1, "corrupt recording", nil)
			}
		}
		return nil
	}

	results, err := f.service.AnalyzePath(context.Background(),
		"/archive/2023/12", ports.WithPlotPath(""), ports.WithRewrite(true), ports.WithWorkers(1))
	if err == nil {
		t.Fatal("AnalyzePath() = nil error, want the failed file reported")
	}
	if len(multierr.Errors(err)) != 1 {
		t.Errorf("failure count = %d, want 1", len(multierr.Errors(err)))
	}
	if len(results) != 2 {
		t.Errorf("AnalyzePath() = %d results, want 2 surviving the failure", len(results))
	}
	if len(f.summary.Appended) != 2 {
		t.Errorf("summary rows appended = %d, want 2", len(f.summary.Appended))
	}
}

func TestAnalyzeBatchEmptyJobs(t *testing.T) {
	f := newServiceFixture(t)

	ch, err := f.service.AnalyzeBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzeBatch(nil) error = %v", err)
	}
	if _, open := <-ch; open {
		t.Error("AnalyzeBatch(nil) channel not closed immediately")
	}
}
