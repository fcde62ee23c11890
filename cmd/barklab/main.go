// Command barklab processes security-camera recordings: it copies them off
// the camera card, measures how much of each soundtrack is barking, and
// renders per-file and per-period summaries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	barklab "github.com/Skryldev/bark-lab"
	"github.com/Skryldev/bark-lab/pkg/logger"
)

var version = "0.1.0"

// AnalyzeCmd analyzes a recording or a directory of recordings
type AnalyzeCmd struct {
	InputPath   string  `arg:"" help:"Input file or directory"`
	Cutoff      float64 `short:"c" default:"5000" help:"Volume value considered as high"`
	MaxGap      float64 `short:"g" default:"5" help:"Maximal gap (in seconds) between sound samples for them to be considered continual"`
	Undersample int     `short:"u" default:"10" help:"Take every n-th sample for plotting (never applied to the analysis)"`
	Rewrite     bool    `short:"r" help:"Re-analyze processed files and replace the summary log"`
	Workers     int     `help:"Number of concurrent analysis workers"`
	NoDisplay   bool    `help:"Do not open the rendered plot (single file input only)"`
}

func (c *AnalyzeCmd) Run(ctx context.Context, app *barklab.Analyzer) error {
	results, err := app.AnalyzePath(ctx, c.InputPath,
		barklab.WithCutoff(c.Cutoff),
		barklab.WithMaxGap(c.MaxGap),
		barklab.WithUndersample(c.Undersample),
		barklab.WithRewrite(c.Rewrite),
		barklab.WithWorkers(c.Workers),
	)
	if err != nil {
		return err
	}

	for _, result := range results {
		fmt.Printf("%s  total=%.0fs bark=%.0fs (%.2f%%)\n",
			result.Timestamp.Format("2006-01-02 15:04:05"),
			result.TotalTime,
			result.BarkTime,
			result.BarkFraction()*100,
		)
	}

	if !c.NoDisplay && len(results) == 1 && results[0].PlotPath != "" {
		display(results[0].PlotPath)
	}
	return nil
}

// SummarizeCmd renders the aggregate plot for a period
type SummarizeCmd struct {
	InputPath string `arg:"" help:"Summary CSV, month directory or year directory"`
	NoDisplay bool   `help:"Do not open the rendered plot"`
}

func (c *SummarizeCmd) Run(ctx context.Context, app *barklab.Analyzer) error {
	imagePath, err := app.Summarize(ctx, c.InputPath)
	if err != nil {
		return err
	}
	fmt.Printf("summary written to %s\n", imagePath)

	if !c.NoDisplay {
		display(imagePath)
	}
	return nil
}

// CopyCmd transfers recordings from the camera card into the archive tree
type CopyCmd struct {
	SourceDir       string `arg:"" help:"Raw recordings directory (camera card)"`
	DestinationRoot string `arg:"" help:"Archive root, recordings land in <root>/<year>/<month>"`
	Workers         int    `help:"Number of concurrent copies"`
}

func (c *CopyCmd) Run(ctx context.Context, app *barklab.Analyzer) error {
	return app.Copy(ctx, c.SourceDir, c.DestinationRoot, barklab.CopyOptions{
		Workers: c.Workers,
	})
}

// ArchiveCmd bundles processed recordings into per-month archives
type ArchiveCmd struct {
	Directory  string `arg:"" help:"Month or year directory"`
	ArchiveAll bool   `help:"Archive all months (default leaves the newest unarchived)"`
}

func (c *ArchiveCmd) Run(ctx context.Context, app *barklab.Analyzer) error {
	return app.Archive(ctx, c.Directory, c.ArchiveAll)
}

// RunCmd is the combo flow: copy new recordings, then analyze and
// summarize the latest month
type RunCmd struct {
	SourceDir       string `arg:"" help:"Raw recordings directory (camera card)"`
	DestinationRoot string `arg:"" help:"Archive root"`
}

func (c *RunCmd) Run(ctx context.Context, app *barklab.Analyzer) error {
	if err := app.Copy(ctx, c.SourceDir, c.DestinationRoot, barklab.CopyOptions{}); err != nil {
		return err
	}

	latest, err := latestMonthDir(c.DestinationRoot)
	if err != nil {
		return err
	}

	if _, err := app.AnalyzePath(ctx, latest); err != nil {
		return err
	}

	imagePath, err := app.Summarize(ctx, latest)
	if err != nil {
		return err
	}
	fmt.Printf("summary written to %s\n", imagePath)
	return nil
}

var cli struct {
	Debug   bool             `help:"Enable debug logging"`
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Analyze   AnalyzeCmd   `cmd:"" help:"Measure barking in recordings and log the durations"`
	Summarize SummarizeCmd `cmd:"" help:"Render aggregate plots from summary logs"`
	Copy      CopyCmd      `cmd:"" help:"Copy recordings from the camera card into the archive"`
	Archive   ArchiveCmd   `cmd:"" help:"Bundle processed recordings into tar.gz archives"`
	Run       RunCmd       `cmd:"" help:"Copy, then analyze and summarize the latest month"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("barklab"),
		kong.Description("Security-camera soundtrack bark analyzer"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	log, err := logger.New(cli.Debug)
	kctx.FatalIfErrorf(err)

	app, err := barklab.New(barklab.Config{Logger: log})
	kctx.FatalIfErrorf(err)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(app))
}

// latestMonthDir resolves the most recent month directory under an archive
// root laid out as <root>/<year>/<month>. A root whose numeric children
// exceed 12 is a year level and is descended once.
func latestMonthDir(root string) (string, error) {
	dir, n, err := newestNumericDir(root)
	if err != nil {
		return "", err
	}
	if n > 12 {
		// year directory, descend to its newest month
		dir, _, err = newestNumericDir(dir)
		if err != nil {
			return "", err
		}
	}
	return dir, nil
}

func newestNumericDir(root string) (string, int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", 0, err
	}

	best := -1
	var bestPath string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if n > best {
			best = n
			bestPath = filepath.Join(root, entry.Name())
		}
	}
	if best < 0 {
		return "", 0, fmt.Errorf("no numeric subdirectories under %s", root)
	}
	return bestPath, best, nil
}

// display opens an image with the desktop handler, best effort.
func display(path string) {
	_ = exec.Command("xdg-open", path).Start()
}
