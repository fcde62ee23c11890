package usecase

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/domain/ports"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
	"github.com/Skryldev/bark-lab/pkg/tapo"
)

// TransferService copies camera recordings from a source directory (the
// camera card) into a destination archive laid out as <root>/<year>/<month>.
type TransferService struct {
	storage ports.StorageProvider
	log     *logger.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(storage ports.StorageProvider, log *logger.Logger) *TransferService {
	return &TransferService{storage: storage, log: log}
}

// CopyOptions configures a transfer run
type CopyOptions struct {
	// CutoffDate skips recordings older than this; zero disables the filter
	CutoffDate time.Time

	// SizeTolerance is the relative size difference below which an existing
	// destination file counts as already copied (default 0.05)
	SizeTolerance float64

	// Workers bounds the copy pool. Copying is I/O-bound, so this pool is
	// independent of the analysis pool.
	Workers int
}

type copyTask struct {
	src string
	dst string
}

// Copy transfers all intact recordings from sourceDir into the archive
// under destRoot. Files already present with a matching size are skipped.
// Sources are never deleted: failed copies surface as errors, and a later
// run picks up whatever is missing.
func (s *TransferService) Copy(ctx context.Context, sourceDir, destRoot string, opts CopyOptions) error {
	isDir, err := s.storage.IsDir(ctx, sourceDir)
	if err != nil || !isDir {
		return pkgerrors.NewNotFoundError(sourceDir, pkgerrors.PathKindDir)
	}

	if opts.SizeTolerance <= 0 {
		opts.SizeTolerance = 0.05
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	tasks, err := s.collectTasks(ctx, sourceDir, destRoot, opts)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		s.log.Info("nothing to copy", zap.String("source", sourceDir))
		return nil
	}

	s.log.Info("copying recordings",
		zap.Int("count", len(tasks)),
		zap.String("source", sourceDir),
		zap.String("destination", destRoot),
	)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errs      error
		semaphore = make(chan struct{}, opts.Workers)
	)
copying:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			// in-flight copies must drain before errs is read
			break copying
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(t copyTask) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.copyVerified(ctx, t); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (s *TransferService) collectTasks(ctx context.Context, sourceDir, destRoot string, opts CopyOptions) ([]copyTask, error) {
	files, err := s.storage.Glob(ctx, sourceDir, "*.mp4")
	if err != nil {
		return nil, pkgerrors.NewIOError(sourceDir, "failed to list recordings", err)
	}

	var tasks []copyTask
	for _, file := range files {
		name := filepath.Base(file)
		if !tapo.IsRecording(name) {
			continue
		}

		ts, err := tapo.ParseTimestamp(name)
		if err != nil {
			s.log.Warn("skipping unparsable recording name", zap.String("file", name))
			continue
		}
		if !opts.CutoffDate.IsZero() && ts.Before(opts.CutoffDate) {
			continue
		}

		dst := filepath.Join(tapo.MonthDir(destRoot, ts), name)
		copied, err := s.alreadyCopied(ctx, file, dst, opts.SizeTolerance)
		if err != nil {
			return nil, err
		}
		if !copied {
			tasks = append(tasks, copyTask{src: file, dst: dst})
		}
	}
	return tasks, nil
}

// alreadyCopied reports whether dst exists with a size close enough to
// src. Camera transfers can truncate files, so a bare existence check is
// not sufficient.
func (s *TransferService) alreadyCopied(ctx context.Context, src, dst string, tolerance float64) (bool, error) {
	exists, err := s.storage.Exists(ctx, dst)
	if err != nil {
		return false, pkgerrors.NewIOError(dst, "failed to check destination", err)
	}
	if !exists {
		return false, nil
	}

	srcSize, err := s.storage.Size(ctx, src)
	if err != nil {
		return false, pkgerrors.NewIOError(src, "failed to stat source", err)
	}
	dstSize, err := s.storage.Size(ctx, dst)
	if err != nil {
		return false, pkgerrors.NewIOError(dst, "failed to stat destination", err)
	}

	if srcSize == 0 {
		return dstSize == 0, nil
	}
	diff := math.Abs(float64(dstSize-srcSize)) / float64(srcSize)
	if diff > tolerance {
		s.log.Info("size mismatch, copying again",
			zap.String("destination", dst),
			zap.Int64("source_size", srcSize),
			zap.Int64("destination_size", dstSize),
		)
		return false, nil
	}
	return true, nil
}

func (s *TransferService) copyVerified(ctx context.Context, t copyTask) error {
	if err := s.storage.Copy(ctx, t.src, t.dst); err != nil {
		return pkgerrors.NewIOError(t.dst, "failed to copy recording", err)
	}

	exists, err := s.storage.Exists(ctx, t.dst)
	if err != nil || !exists {
		return pkgerrors.NewIOError(t.dst, "copy did not produce destination file", err)
	}
	return nil
}
