package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/domain/model"
	"github.com/Skryldev/bark-lab/domain/ports"
	"github.com/Skryldev/bark-lab/domain/signal"
	"github.com/Skryldev/bark-lab/infrastructure/ffmpeg"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
	"github.com/Skryldev/bark-lab/pkg/progress"
	"github.com/Skryldev/bark-lab/pkg/retry"
	"github.com/Skryldev/bark-lab/pkg/tapo"
)

// Job holds the state of a single analysis operation
type Job struct {
	ID        string
	InputPath string
	Options   *model.AnalyzeOptions
	Reporter  progress.Reporter
	Log       *logger.Logger
}

// Pipeline orchestrates the per-file analysis stages: decode (with
// soundtrack extraction for video containers), classify, aggregate, plot.
type Pipeline struct {
	executor ports.FFmpegExecutor
	reader   ports.SignalReader
	storage  ports.StorageProvider
	plotter  ports.PlotRenderer
	retryCfg retry.Config
	log      *logger.Logger
}

// NewPipeline creates a new analysis pipeline
func NewPipeline(
	executor ports.FFmpegExecutor,
	reader ports.SignalReader,
	storage ports.StorageProvider,
	plotter ports.PlotRenderer,
	retryCfg retry.Config,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		executor: executor,
		reader:   reader,
		storage:  storage,
		plotter:  plotter,
		retryCfg: retryCfg,
		log:      log,
	}
}

// Run executes the full analysis for a job
func (p *Pipeline) Run(ctx context.Context, job *Job) (*model.AnalysisResult, error) {
	if err := p.validateInput(ctx, job); err != nil {
		return nil, err
	}
	job.report(progress.StageValidate, 5, "input validated")

	timestamp, err := tapo.ParseTimestamp(job.InputPath)
	if err != nil {
		return nil, err
	}

	sig, err := p.decode(ctx, job)
	if err != nil {
		return nil, err
	}
	job.report(progress.StageDecode, 40, "signal decoded")

	opts := job.Options
	maxGapSamples := int(opts.MaxGap * float64(sig.SampleRate))

	mask, err := signal.Classify(sig.Data, opts.Cutoff, maxGapSamples)
	if err != nil {
		return nil, err
	}
	job.report(progress.StageClassify, 60, "signal classified")

	durations, err := signal.Aggregate(mask, sig.Step())
	if err != nil {
		return nil, err
	}
	job.report(progress.StageAggregate, 75,
		fmt.Sprintf("barking %.2f%% of the recording", durations.Fraction()*100))

	result := &model.AnalysisResult{
		Timestamp: timestamp,
		TotalTime: durations.Total,
		BarkTime:  durations.Bark,
		InputPath: job.InputPath,
	}

	if opts.PlotPath != "" {
		plotPath := opts.PlotPath
		if plotPath == "auto" {
			plotPath = withSuffix(job.InputPath, ".png")
		}
		if err := p.renderPlot(ctx, sig, result, opts, plotPath); err != nil {
			return nil, err
		}
		result.PlotPath = plotPath
		job.report(progress.StagePlot, 95, "plot rendered")
	}

	job.report(progress.StageDone, 100, "done")
	return result, nil
}

func (p *Pipeline) validateInput(ctx context.Context, job *Job) error {
	if job.InputPath == "" {
		return pkgerrors.NewValidationError("inputPath", "", "input path must not be empty")
	}

	opts := job.Options
	if opts == nil {
		return pkgerrors.NewValidationError("options", nil, "options must not be nil")
	}
	if opts.Cutoff < 0 {
		return pkgerrors.NewValidationError("cutoff", opts.Cutoff, "cutoff must not be negative")
	}
	if opts.MaxGap < 0 {
		return pkgerrors.NewValidationError("maxGap", opts.MaxGap, "max gap must not be negative")
	}

	exists, err := p.storage.Exists(ctx, job.InputPath)
	if err != nil {
		return pkgerrors.NewIOError(job.InputPath, "failed to check input file", err)
	}
	if !exists {
		return pkgerrors.NewNotFoundError(job.InputPath, pkgerrors.PathKindFile)
	}
	return nil
}

// decode loads the mono amplitude signal. WAV files are read directly;
// anything else is treated as a video container and its soundtrack is
// extracted into a temporary WAV first.
func (p *Pipeline) decode(ctx context.Context, job *Job) (*model.Signal, error) {
	if strings.EqualFold(filepath.Ext(job.InputPath), ".wav") {
		return p.reader.ReadSignal(ctx, job.InputPath)
	}

	if err := p.checkSoundtrackLayout(ctx, job.InputPath); err != nil {
		return nil, err
	}

	tempWAV, err := p.storage.TempFile(ctx, "", "soundtrack-*.wav")
	if err != nil {
		return nil, pkgerrors.NewIOError(job.InputPath, "failed to create temp waveform file", err)
	}
	defer func() {
		if rmErr := p.storage.Remove(ctx, tempWAV); rmErr != nil {
			p.log.Warn("failed to remove temp waveform",
				zap.String("path", tempWAV),
				zap.Error(rmErr),
			)
		}
	}()

	args := ffmpeg.ExtractArgs(job.InputPath, tempWAV)
	err = retry.Do(ctx, p.retryCfg, func() error {
		execErr := p.executor.Execute(ctx, args)
		// A clean non-zero exit means ffmpeg rejected the input; retrying
		// cannot change that. Only spawn-level failures are transient.
		if ffErr, ok := pkgerrors.As[*pkgerrors.FFmpegError](execErr); ok && ffErr.ExitCode > 0 {
			return retry.Permanent(execErr)
		}
		return execErr
	})
	if err != nil {
		return nil, err
	}
	job.report(progress.StageExtract, 25, "soundtrack extracted")

	return p.reader.ReadSignal(ctx, tempWAV)
}

// checkSoundtrackLayout rejects multi-channel soundtracks before any
// extraction work. A failed or inconclusive probe is not fatal: extraction
// preserves the channel layout, so the WAV reader still rejects stereo.
func (p *Pipeline) checkSoundtrackLayout(ctx context.Context, inputPath string) error {
	data, err := p.executor.Probe(ctx, inputPath)
	if err != nil {
		p.log.Warn("ffprobe failed, deferring layout check to the reader",
			zap.String("input", inputPath),
			zap.Error(err),
		)
		return nil
	}

	channels, err := ffmpeg.AudioChannels(data)
	if err != nil {
		p.log.Warn("unreadable ffprobe output, deferring layout check to the reader",
			zap.String("input", inputPath),
			zap.Error(err),
		)
		return nil
	}
	if channels > 1 {
		return pkgerrors.NewChannelLayoutError(channels)
	}
	return nil
}

func (p *Pipeline) renderPlot(ctx context.Context, sig *model.Signal, result *model.AnalysisResult, opts *model.AnalyzeOptions, path string) error {
	stride := opts.Undersample
	if stride < 1 {
		stride = 1
	}

	desc := buildWaveformPlot(sig, result, opts.Cutoff, stride)
	if err := p.plotter.RenderWaveform(ctx, desc, path); err != nil {
		return pkgerrors.NewIOError(path, "failed to render waveform plot", err)
	}
	return nil
}

// buildWaveformPlot undersamples the signal for display only. The analysis
// always runs on the full sequence.
func buildWaveformPlot(sig *model.Signal, result *model.AnalysisResult, cutoff float64, stride int) model.WaveformPlot {
	n := (len(sig.Data) + stride - 1) / stride
	times := make([]float64, 0, n)
	amps := make([]float64, 0, n)
	for i := 0; i < len(sig.Data); i += stride {
		times = append(times, sig.Time(i))
		amps = append(amps, sig.Data[i])
	}

	title := fmt.Sprintf("%s\nBarking: %s of %s (%.2f%%)",
		result.Timestamp.Format("2006-01-02 15:04:05"),
		FormatSeconds(result.BarkTime),
		FormatSeconds(result.TotalTime),
		result.BarkFraction()*100,
	)

	return model.WaveformPlot{
		Title:      title,
		Times:      times,
		Amplitudes: amps,
		Cutoff:     cutoff,
	}
}

// FormatSeconds renders a duration in seconds for plot captions, whole
// seconds only.
func FormatSeconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Truncate(time.Second).String()
}

func withSuffix(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
