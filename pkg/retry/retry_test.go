package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skryldev/bark-lab/pkg/retry"
)

func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Multiplier:  1.0,
		MaxDelay:    time.Millisecond,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestPermanentStopsRetrying(t *testing.T) {
	boom := errors.New("rejected input")
	attempts := 0
	err := retry.Do(context.Background(), fastConfig(), func() error {
		attempts++
		return retry.Permanent(boom)
	})
	if !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent error)", attempts)
	}
}

func TestPermanentNil(t *testing.T) {
	if retry.Permanent(nil) != nil {
		t.Error("Permanent(nil) != nil")
	}
}

func TestDoRespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, fastConfig(), func() error {
		t.Fatal("fn called with canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
