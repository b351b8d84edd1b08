package main

import (
	"TextScan/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "TextScan",
		Usage:     "Parallel pattern search across files and archives",
		ArgsUsage: "[roots...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Search pattern: plain text, 'plain:i:' for case-insensitive, or 're:<regex>'",
			},
			&cli.StringFlag{
				Name:  "pattern-file",
				Usage: "Path to text file with one pattern per line (combined into one search)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only scan files matching these glob patterns (e.g. '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching these glob patterns",
			},
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Max concurrent workers (default scales with CPU)",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Max directory depth (0 - unlimited)",
				Value: 0,
			},
			&cli.BoolFlag{
				Name:  "archives",
				Usage: "Also search inside archives (.zip,.tar,.gz,.bz2,.xz,.rar,.7z,...)",
			},
			&cli.BoolFlag{
				Name:  "binary",
				Usage: "Search binary files too instead of skipping them",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Global timeout for the search (e.g. 10m, 1h)",
			},
			&cli.StringFlag{
				Name:  "save-matches-file",
				Usage: "Append all matched text into a single file",
			},
			&cli.StringFlag{
				Name:  "logfile",
				Usage: "Write logs into file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	internal.InitLogger(c.String("logfile"), c.String("log-level"))
	logrus.Info("TextScan started")

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pattern, err := buildPattern(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	roots := c.Args().Slice()
	if len(roots) == 0 {
		roots = []string{"."}
	}
	var validRoots []string
	for _, r := range roots {
		if st, err := os.Stat(r); err == nil && st.IsDir() {
			validRoots = append(validRoots, r)
		} else {
			logrus.Warnf("Skip: not a dir or inaccessible: %s", r)
		}
	}
	if len(validRoots) == 0 {
		return cli.Exit("No valid search paths", 1)
	}

	scope := &internal.FileSet{
		Roots:    validRoots,
		Include:  c.StringSlice("include"),
		Exclude:  c.StringSlice("exclude"),
		Depth:    c.Int("depth"),
		Archives: c.Bool("archives"),
	}
	if err := scope.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	opts := internal.SearchOptions{
		Threads:       c.Int("threads"),
		IgnoreMissing: true,
		TraceTiming:   true,
	}
	if err := opts.Validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var stats internal.AppStats
	requestor := internal.NewLogRequestor(&stats)
	requestor.IncludeBinary = c.Bool("binary")
	requestor.SaveMatchesTo = c.String("save-matches-file")

	var monitor internal.ProgressMonitor
	if internal.ShowProgress() {
		monitor = internal.NewTerminalMonitor()
	}

	engine := internal.NewEngine(pattern, requestor, opts)
	status := engine.SearchScope(ctx, scope, monitor)

	for _, e := range status.Entries {
		if e.Severity == internal.SeverityError {
			stats.Errors.Add(1)
			logrus.WithError(e.Err).WithField("file", e.Path).Error(e.Message)
		} else {
			logrus.WithError(e.Err).WithField("file", e.Path).Warn(e.Message)
		}
	}

	fmt.Printf(
		"\n======= Search finished in %s (%s) =======\nTotal matches found: %d\nBinary files: %d\nErrors: %d\n",
		stats.Elapsed(), status.Code, stats.Matches.Load(), stats.BinaryFiles.Load(), stats.Errors.Load(),
	)
	if status.Code == internal.StatusCanceled {
		return cli.Exit("Search cancelled", 2)
	}
	return nil
}

func buildPattern(c *cli.Context) (internal.Pattern, error) {
	spec := c.String("pattern")
	file := c.String("pattern-file")
	switch {
	case spec != "" && file != "":
		return nil, fmt.Errorf("use either --pattern or --pattern-file, not both")
	case file != "":
		return internal.LoadPatternFile(file)
	default:
		// An empty pattern matches nothing; the search still enumerates
		// and classifies files.
		return internal.CompilePattern(spec)
	}
}
