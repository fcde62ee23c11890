package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	barklab "github.com/Skryldev/bark-lab"
)

func main() {
	// ── Graceful shutdown via signal ──────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Progress channel ──────────────────────────────────────────────────
	progressCh := make(chan barklab.ProgressUpdate, 32)
	go func() {
		for upd := range progressCh {
			fmt.Printf("[%s] stage=%-10s %.0f%%  %s\n",
				upd.JobID, upd.Stage, upd.Percent, upd.Message)
		}
	}()

	// ── Create analyzer ───────────────────────────────────────────────────
	analyzer, err := barklab.New(barklab.Config{
		Workers:    4,
		ProgressCh: progressCh,
	})
	if err != nil {
		log.Fatalf("failed to create analyzer: %v", err)
	}
	defer func() {
		close(progressCh)
		analyzer.Close()
	}()

	// ── Example 1: Single file analysis ──────────────────────────────────
	fmt.Println("\n── Example 1: Single File Analysis ──")
	singleExample(ctx, analyzer)

	// ── Example 2: Batch analysis ────────────────────────────────────────
	fmt.Println("\n── Example 2: Batch Analysis ──")
	batchExample(ctx, analyzer)

	// ── Example 3: Period summary ────────────────────────────────────────
	fmt.Println("\n── Example 3: Period Summary ──")
	summarizeExample(ctx, analyzer)
}

func singleExample(ctx context.Context, a *barklab.Analyzer) {
	inputPath := os.Getenv("BARKLAB_INPUT")
	if inputPath == "" {
		inputPath = "/recordings/2023/12/20231215_093653_tp00033.mp4"
	}

	result, err := a.AnalyzeFile(ctx, inputPath,
		barklab.WithCutoff(5_000),
		barklab.WithMaxGap(5),
		barklab.WithUndersample(10),
	)
	if err != nil {
		fmt.Printf("analysis failed: %v\n", err)
		return
	}

	fmt.Printf("Done! recorded=%s total=%.0fs bark=%.0fs (%.2f%%)\n",
		result.Timestamp.Format("2006-01-02 15:04:05"),
		result.TotalTime,
		result.BarkTime,
		result.BarkFraction()*100,
	)
	if result.PlotPath != "" {
		fmt.Printf("Plot: %s\n", result.PlotPath)
	}
}

func batchExample(ctx context.Context, a *barklab.Analyzer) {
	jobs := []barklab.BatchJob{
		{
			ID:        "job-001",
			InputPath: "/recordings/2023/12/20231215_093653_tp00033.mp4",
			Options:   nil, // will use defaults
		},
		{
			ID:        "job-002",
			InputPath: "/recordings/2023/12/20231215_101502_tp00034.mp4",
		},
	}

	resultsCh, err := a.AnalyzeBatch(ctx, jobs)
	if err != nil {
		fmt.Printf("batch failed to start: %v\n", err)
		return
	}

	successCount := 0
	for res := range resultsCh {
		if res.Err != nil {
			fmt.Printf("[%s] FAILED: %v\n", res.JobID, res.Err)
			continue
		}
		successCount++
		fmt.Printf("[%s] OK bark=%.0fs of %.0fs\n",
			res.JobID, res.Result.BarkTime, res.Result.TotalTime)
	}

	fmt.Printf("Batch complete: %d/%d succeeded\n", successCount, len(jobs))
}

func summarizeExample(ctx context.Context, a *barklab.Analyzer) {
	dir := os.Getenv("BARKLAB_MONTH_DIR")
	if dir == "" {
		dir = "/recordings/2023/12"
	}

	imagePath, err := a.Summarize(ctx, dir)
	if err != nil {
		fmt.Printf("summarize failed: %v\n", err)
		return
	}
	fmt.Printf("Summary plot: %s\n", imagePath)
}
