package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Skryldev/bark-lab/application/usecase"
	"github.com/Skryldev/bark-lab/internal/mocks"
	pkgerrors "github.com/Skryldev/bark-lab/pkg/errors"
	"github.com/Skryldev/bark-lab/pkg/logger"
)

func newTransferFixture() (*mocks.MockStorageProvider, *usecase.TransferService) {
	storage := &mocks.MockStorageProvider{}
	return storage, usecase.NewTransferService(storage, logger.NewNop())
}

func TestCopyLaysOutYearMonth(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/card", nil
	}
	storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/card/20231215_093653_tp00033.mp4",
			"/card/20240103_120000_tp00101.mp4",
		}, nil
	}
	// Nothing at the destination yet.
	storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return filepath.Dir(path) == "/card" || len(storage.Copies) > 0, nil
	}

	if err := svc.Copy(context.Background(), "/card", "/archive", usecase.CopyOptions{Workers: 1}); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if len(storage.Copies) != 2 {
		t.Fatalf("copies = %d, want 2", len(storage.Copies))
	}
	want := map[string]string{
		"/card/20231215_093653_tp00033.mp4": "/archive/2023/12/20231215_093653_tp00033.mp4",
		"/card/20240103_120000_tp00101.mp4": "/archive/2024/1/20240103_120000_tp00101.mp4",
	}
	for _, c := range storage.Copies {
		if want[c[0]] != c[1] {
			t.Errorf("copied %s to %s, want %s", c[0], c[1], want[c[0]])
		}
	}
	if len(storage.Removed) != 0 {
		t.Errorf("removed %d source files, copy must never delete", len(storage.Removed))
	}
}

func TestCopySkipsSpecialAndOldRecordings(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/card", nil
	}
	storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/card/20231215_093653_tp00033.mp4",
			"/card/20231215_100000_xx0001.mp4",
			"/card/20230101_080000_tp00002.mp4",
			"/card/not_a_recording.mp4",
		}, nil
	}
	storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return filepath.Dir(path) == "/card" || len(storage.Copies) > 0, nil
	}

	opts := usecase.CopyOptions{
		CutoffDate: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		Workers:    1,
	}
	if err := svc.Copy(context.Background(), "/card", "/archive", opts); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if len(storage.Copies) != 1 {
		t.Fatalf("copies = %d, want 1 (special names and old recordings skipped)", len(storage.Copies))
	}
	if storage.Copies[0][0] != "/card/20231215_093653_tp00033.mp4" {
		t.Errorf("copied %s, want the one in-range recording", storage.Copies[0][0])
	}
}

func TestCopySkipsAlreadyCopied(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/card", nil
	}
	storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/card/20231215_093653_tp00033.mp4",
			"/card/20231215_100000_tp00034.mp4",
		}, nil
	}
	storage.SizeFunc = func(ctx context.Context, path string) (int64, error) {
		switch path {
		case "/archive/2023/12/20231215_093653_tp00033.mp4":
			return 990, nil // within 5% of the source
		case "/archive/2023/12/20231215_100000_tp00034.mp4":
			return 500, nil // truncated transfer
		default:
			return 1000, nil
		}
	}

	if err := svc.Copy(context.Background(), "/card", "/archive", usecase.CopyOptions{Workers: 1}); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if len(storage.Copies) != 1 {
		t.Fatalf("copies = %d, want only the truncated destination re-copied", len(storage.Copies))
	}
	if storage.Copies[0][1] != "/archive/2023/12/20231215_100000_tp00034.mp4" {
		t.Errorf("re-copied %s, want the truncated destination", storage.Copies[0][1])
	}
}

func TestCopyFailureDoesNotAbortRun(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/card", nil
	}
	storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/card/20231215_093653_tp00033.mp4",
			"/card/20231215_100000_tp00034.mp4",
		}, nil
	}
	storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return filepath.Dir(path) == "/card" || len(storage.Copies) > 0, nil
	}
	storage.CopyFunc = func(ctx context.Context, src, dst string) error {
		if src == "/card/20231215_093653_tp00033.mp4" {
			return errors.New("device removed")
		}
		return nil
	}

	err := svc.Copy(context.Background(), "/card", "/archive", usecase.CopyOptions{Workers: 1})
	if err == nil {
		t.Fatal("Copy() = nil error, want the failed file reported")
	}

	if len(storage.Copies) != 2 {
		t.Errorf("copy attempts = %d, want 2 (one failure must not stop the rest)", len(storage.Copies))
	}
}

func TestCopyCancellationDrainsWorkers(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return path == "/card", nil
	}
	storage.GlobFunc = func(ctx context.Context, dir, pattern string) ([]string, error) {
		return []string{
			"/card/20231215_093653_tp00033.mp4",
			"/card/20231215_100000_tp00034.mp4",
			"/card/20231215_110000_tp00035.mp4",
		}, nil
	}
	storage.ExistsFunc = func(ctx context.Context, path string) (bool, error) {
		return filepath.Dir(path) == "/card" || len(storage.Copies) > 0, nil
	}

	var (
		once     sync.Once
		started  = make(chan struct{})
		release  = make(chan struct{})
		inFlight atomic.Int32
	)
	storage.CopyFunc = func(ctx context.Context, src, dst string) error {
		inFlight.Add(1)
		once.Do(func() { close(started) })
		<-release
		inFlight.Add(-1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
		close(release)
	}()

	err := svc.Copy(ctx, "/card", "/archive", usecase.CopyOptions{Workers: 1})
	if err == nil {
		t.Fatal("Copy(canceled) = nil error, want context cancellation reported")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Copy(canceled) error = %v, want context.Canceled in the chain", err)
	}

	// The method must not return with copies still running.
	if n := inFlight.Load(); n != 0 {
		t.Errorf("copies still in flight after return = %d, want 0", n)
	}
}

func TestCopyRequiresSourceDir(t *testing.T) {
	storage, svc := newTransferFixture()
	storage.IsDirFunc = func(ctx context.Context, path string) (bool, error) {
		return false, nil
	}

	err := svc.Copy(context.Background(), "/card", "/archive", usecase.CopyOptions{})
	if err == nil {
		t.Fatal("Copy(non-dir) = nil error, want not found")
	}
	if _, ok := pkgerrors.As[*pkgerrors.NotFoundError](err); !ok {
		t.Errorf("Copy(non-dir) error = %T, want *NotFoundError", err)
	}
}
