package usecase

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Skryldev/bark-lab/domain/ports"
	"github.com/Skryldev/bark-lab/infrastructure/archive"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
)

// ArchiveFileName is the per-month recordings bundle.
const ArchiveFileName = "recordings.tgz"

// ArchiveService bundles a month's processed recordings into a tar.gz and
// removes the originals. Sources are deleted only after the archive is
// verified in place: a partial failure never strands removed files.
type ArchiveService struct {
	storage ports.StorageProvider
	log     *logger.Logger
	workers int
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(storage ports.StorageProvider, workers int, log *logger.Logger) *ArchiveService {
	if workers <= 0 {
		workers = 4
	}
	return &ArchiveService{storage: storage, workers: workers, log: log}
}

// Archive bundles recordings under path. A directory holding recordings is
// archived directly; otherwise it is treated as a year directory and its
// numeric month subdirectories are archived concurrently, leaving the
// newest month untouched unless archiveAll is set.
func (s *ArchiveService) Archive(ctx context.Context, path string, archiveAll bool) error {
	isDir, err := s.storage.IsDir(ctx, path)
	if err != nil || !isDir {
		return pkgerrors.NewNotFoundError(path, pkgerrors.PathKindDir)
	}

	recordings, err := s.storage.Glob(ctx, path, "*.mp4")
	if err != nil {
		return pkgerrors.NewIOError(path, "failed to list recordings", err)
	}
	if len(recordings) > 0 {
		return s.archiveMonth(ctx, path)
	}

	months, err := s.monthDirs(ctx, path)
	if err != nil {
		return err
	}
	if !archiveAll && len(months) > 0 {
		// the newest month is usually still being written to
		months = months[:len(months)-1]
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errs      error
		semaphore = make(chan struct{}, s.workers)
	)
archiving:
	for _, month := range months {
		select {
		case <-ctx.Done():
			// in-flight months must drain before errs is read
			break archiving
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := s.archiveMonth(ctx, dir); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(month)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (s *ArchiveService) archiveMonth(ctx context.Context, dir string) error {
	files, err := s.storage.Glob(ctx, dir, "*.mp4")
	if err != nil {
		return pkgerrors.NewIOError(dir, "failed to list recordings", err)
	}
	if len(files) == 0 {
		return nil
	}

	s.log.Info("archiving recordings",
		zap.String("dir", dir),
		zap.Int("count", len(files)),
	)

	tempArchive, err := s.storage.TempFile(ctx, "", "recordings-*.tgz")
	if err != nil {
		return pkgerrors.NewIOError(dir, "failed to create temp archive", err)
	}
	defer func() {
		if rmErr := s.storage.Remove(ctx, tempArchive); rmErr != nil {
			s.log.Warn("failed to remove temp archive",
				zap.String("path", tempArchive),
				zap.Error(rmErr),
			)
		}
	}()

	if err := archive.Create(tempArchive, files); err != nil {
		return pkgerrors.NewIOError(tempArchive, "failed to write archive", err)
	}

	target := filepath.Join(dir, ArchiveFileName)
	if err := s.storage.Copy(ctx, tempArchive, target); err != nil {
		return pkgerrors.NewIOError(target, "failed to place archive", err)
	}

	// Verify the archive landed before touching any source.
	size, err := s.storage.Size(ctx, target)
	if err != nil || size == 0 {
		return pkgerrors.NewIOError(target, "archive missing after copy", err)
	}

	var errs error
	for _, file := range files {
		if err := s.storage.Remove(ctx, file); err != nil {
			errs = multierr.Append(errs, pkgerrors.NewIOError(file, "failed to remove archived recording", err))
		}
	}
	return errs
}

// monthDirs lists numerically named subdirectories sorted ascending.
func (s *ArchiveService) monthDirs(ctx context.Context, dir string) ([]string, error) {
	entries, err := s.storage.Glob(ctx, dir, "*")
	if err != nil {
		return nil, pkgerrors.NewIOError(dir, "failed to list subdirectories", err)
	}

	type monthDir struct {
		path  string
		month int
	}
	var months []monthDir
	for _, entry := range entries {
		isDir, err := s.storage.IsDir(ctx, entry)
		if err != nil || !isDir {
			continue
		}
		n, err := strconv.Atoi(filepath.Base(entry))
		if err != nil {
			continue
		}
		months = append(months, monthDir{path: entry, month: n})
	}

	sort.Slice(months, func(i, j int) bool {
		return months[i].month < months[j].month
	})

	paths := make([]string, len(months))
	for i, m := range months {
		paths[i] = m.path
	}
	return paths, nil
}
