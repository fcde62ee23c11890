package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/domain/model"
	"github.com/Skryldev/bark-lab/pkg/logger"
	"github.com/Skryldev/bark-lab/pkg/progress"
)

// WorkerPool manages concurrent analysis jobs. The per-file work is pure
// CPU over in-memory samples, so the pool is bounded rather than unbounded.
type WorkerPool struct {
	pipeline *Pipeline
	workers  int
	log      *logger.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(p *Pipeline, workers int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = 4
	}
	return &WorkerPool{
		pipeline: p,
		workers:  workers,
		log:      log,
	}
}

// Run analyzes batch jobs concurrently and sends results to the returned
// channel. One job's failure never aborts the others; the channel is closed
// when all jobs are complete.
func (wp *WorkerPool) Run(ctx context.Context, jobs []model.BatchJob, reporter progress.Reporter) (<-chan model.BatchResult, error) {
	results := make(chan model.BatchResult, len(jobs))

	// Jobs submitted together share one options value; an explicit worker
	// count there bounds this batch instead of the pool default.
	workers := wp.workers
	if len(jobs) > 0 && jobs[0].Options != nil && jobs[0].Options.Workers > 0 {
		workers = jobs[0].Options.Workers
	}

	go func() {
		defer close(results)

		jobCh := make(chan model.BatchJob, len(jobs))
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, workers)

		for job := range jobCh {
			select {
			case <-ctx.Done():
				results <- model.BatchResult{
					JobID: job.ID,
					Err:   ctx.Err(),
				}
				continue
			case semaphore <- struct{}{}:
			}

			wg.Add(1)
			go func(j model.BatchJob) {
				defer wg.Done()
				defer func() { <-semaphore }()

				result, err := wp.analyzeJob(ctx, j, reporter)
				results <- model.BatchResult{
					JobID:  j.ID,
					Result: result,
					Err:    err,
				}
			}(job)
		}

		wg.Wait()
	}()

	return results, nil
}

func (wp *WorkerPool) analyzeJob(ctx context.Context, job model.BatchJob, reporter progress.Reporter) (*model.AnalysisResult, error) {
	opts := job.Options
	if opts == nil {
		opts = model.DefaultAnalyzeOptions()
	}

	pipelineJob := &Job{
		ID:        job.ID,
		InputPath: job.InputPath,
		Options:   opts,
		Reporter:  reporter,
		Log:       wp.log.With(zap.String("job_id", job.ID)),
	}

	wp.log.Info("analyzing recording",
		zap.String("job_id", job.ID),
		zap.String("input", job.InputPath),
	)

	result, err := wp.pipeline.Run(ctx, pipelineJob)
	if err != nil {
		wp.log.Error("analysis job failed",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("job %s failed: %w", job.ID, err)
	}

	return result, nil
}

// report is a helper to emit progress updates
func (j *Job) report(stage progress.Stage, percent float64, msg string) {
	if j.Reporter == nil {
		return
	}
	j.Reporter.Report(progress.Update{
		JobID:   j.ID,
		Stage:   stage,
		Percent: percent,
		Message: msg,
	})
}
