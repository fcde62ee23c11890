package mocks

import (
	"context"
	"sync"

	"github.com/Skryldev/bark-lab/domain/model"
)

// MockFFmpegExecutor is a test double for ports.FFmpegExecutor
type MockFFmpegExecutor struct {
	ExecuteFunc  func(ctx context.Context, args []string) error
	ProbeFunc    func(ctx context.Context, inputPath string) ([]byte, error)
	ExecutedArgs [][]string

	mu sync.Mutex
}

func (m *MockFFmpegExecutor) Execute(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.ExecutedArgs = append(m.ExecutedArgs, args)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return nil
}

func (m *MockFFmpegExecutor) Probe(ctx context.Context, inputPath string) ([]byte, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, inputPath)
	}
	return []byte(`{}`), nil
}

// MockSignalReader is a test double for ports.SignalReader
type MockSignalReader struct {
	ReadSignalFunc func(ctx context.Context, path string) (*model.Signal, error)
	ReadPaths      []string

	mu sync.Mutex
}

func (m *MockSignalReader) ReadSignal(ctx context.Context, path string) (*model.Signal, error) {
	m.mu.Lock()
	m.ReadPaths = append(m.ReadPaths, path)
	m.mu.Unlock()
	if m.ReadSignalFunc != nil {
		return m.ReadSignalFunc(ctx, path)
	}
	return &model.Signal{Data: []float64{0, 0, 0}, SampleRate: 8000}, nil
}

// MockStorageProvider is a test double for ports.StorageProvider
type MockStorageProvider struct {
	ExistsFunc   func(ctx context.Context, path string) (bool, error)
	IsDirFunc    func(ctx context.Context, path string) (bool, error)
	SizeFunc     func(ctx context.Context, path string) (int64, error)
	GlobFunc     func(ctx context.Context, dir, pattern string) ([]string, error)
	CopyFunc     func(ctx context.Context, src, dst string) error
	RemoveFunc   func(ctx context.Context, path string) error
	TempFileFunc func(ctx context.Context, dir, pattern string) (string, error)

	Copies  [][2]string
	Removed []string

	mu sync.Mutex
}

func (m *MockStorageProvider) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockStorageProvider) IsDir(ctx context.Context, path string) (bool, error) {
	if m.IsDirFunc != nil {
		return m.IsDirFunc(ctx, path)
	}
	return false, nil
}

func (m *MockStorageProvider) Size(ctx context.Context, path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(ctx, path)
	}
	return 1024, nil
}

func (m *MockStorageProvider) Glob(ctx context.Context, dir, pattern string) ([]string, error) {
	if m.GlobFunc != nil {
		return m.GlobFunc(ctx, dir, pattern)
	}
	return nil, nil
}

func (m *MockStorageProvider) Copy(ctx context.Context, src, dst string) error {
	m.mu.Lock()
	m.Copies = append(m.Copies, [2]string{src, dst})
	m.mu.Unlock()
	if m.CopyFunc != nil {
		return m.CopyFunc(ctx, src, dst)
	}
	return nil
}

func (m *MockStorageProvider) Remove(ctx context.Context, path string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, path)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}
	return nil
}

func (m *MockStorageProvider) TempFile(ctx context.Context, dir, pattern string) (string, error) {
	if m.TempFileFunc != nil {
		return m.TempFileFunc(ctx, dir, pattern)
	}
	return "/tmp/mock_temp_file", nil
}

// MockSummaryLog is a test double for ports.SummaryLog
type MockSummaryLog struct {
	AppendFunc func(ctx context.Context, path string, rows []model.AnalysisResult, rewrite bool) error
	ReadFunc   func(ctx context.Context, path string) ([]model.AnalysisResult, error)

	Appended []model.AnalysisResult
	Rewrites []bool

	mu sync.Mutex
}

func (m *MockSummaryLog) Append(ctx context.Context, path string, rows []model.AnalysisResult, rewrite bool) error {
	m.mu.Lock()
	m.Appended = append(m.Appended, rows...)
	m.Rewrites = append(m.Rewrites, rewrite)
	m.mu.Unlock()
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, path, rows, rewrite)
	}
	return nil
}

func (m *MockSummaryLog) Read(ctx context.Context, path string) ([]model.AnalysisResult, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, path)
	}
	return nil, nil
}

// MockPlotRenderer is a test double for ports.PlotRenderer
type MockPlotRenderer struct {
	RenderWaveformFunc func(ctx context.Context, p model.WaveformPlot, path string) error
	RenderSummaryFunc  func(ctx context.Context, p model.SummaryPlot, path string) error

	Waveforms []model.WaveformPlot
	Summaries []model.SummaryPlot

	mu sync.Mutex
}

func (m *MockPlotRenderer) RenderWaveform(ctx context.Context, p model.WaveformPlot, path string) error {
	m.mu.Lock()
	m.Waveforms = append(m.Waveforms, p)
	m.mu.Unlock()
	if m.RenderWaveformFunc != nil {
		return m.RenderWaveformFunc(ctx, p, path)
	}
	return nil
}

func (m *MockPlotRenderer) RenderSummary(ctx context.Context, p model.SummaryPlot, path string) error {
	m.mu.Lock()
	m.Summaries = append(m.Summaries, p)
	m.mu.Unlock()
	if m.RenderSummaryFunc != nil {
		return m.RenderSummaryFunc(ctx, p, path)
	}
	return nil
}
