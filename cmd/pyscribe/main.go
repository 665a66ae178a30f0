package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/arjunmahishi/pyscribe/config"
	"github.com/arjunmahishi/pyscribe/metrics"
	"github.com/arjunmahishi/pyscribe/output"
	"github.com/arjunmahishi/pyscribe/pyscribe"
	"github.com/arjunmahishi/pyscribe/report"
	"github.com/arjunmahishi/pyscribe/summary"
)

func main() {
	app := &cli.Command{
		Name:    "pyscribe",
		Usage:   "extract functions, classes, docstrings and imports from Python sources",
		Version: version,
		Commands: []*cli.Command{
			parseCommand(),
			creditsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		output.WriteError(os.Stderr, err)
		os.Exit(1)
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse a Python file or directory",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "output format: table, json",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "single-line JSON output",
			},
			&cli.StringFlag{
				Name:  "module-root",
				Usage: "directory module names are derived from",
			},
			&cli.StringFlag{
				Name:  "markdown",
				Usage: "write README-ready Markdown to this file",
			},
			&cli.BoolFlag{
				Name:  "no-summary",
				Usage: "skip the Gemini summary in the Markdown output",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "glob of paths to skip, relative to PATH (repeatable)",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "number of parallel workers (default: number of CPUs)",
			},
			&cli.Int64Flag{
				Name:  "max-bytes",
				Usage: "skip files larger than this",
			},
			&cli.BoolFlag{
				Name:  "skip-validation",
				Usage: "let the grammar report unterminated docstrings",
			},
			&cli.StringFlag{
				Name:  "config",
				Value: "pyscribe.yaml",
				Usage: "path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write Prometheus metrics to this file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug logging",
			},
		},
		Action: runParse,
	}
}

// parseOutput is the JSON document written by --format json.
type parseOutput struct {
	Items   []pyscribe.LocatedItem `json:"items"`
	Reports pyscribe.Reports       `json:"reports"`
	Failed  []failedFile           `json:"failed,omitempty"`
}

type failedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

func runParse(ctx context.Context, cmd *cli.Command) error {
	setupLogger(cmd.Bool("verbose"))

	path := cmd.Args().First()
	if path == "" {
		return errors.New("PATH argument is required")
	}
	format := cmd.String("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q: use table or json", format)
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return pyscribe.IOError(path, err)
	}

	rec := metrics.New()
	opts := pyscribe.ParseFilesOptions{
		ModuleRoot:     cmd.String("module-root"),
		Exclude:        append(cfg.Scan.Exclude, cmd.StringSlice("exclude")...),
		SkipValidation: cmd.Bool("skip-validation"),
		Jobs:           cfg.Scan.Jobs,
		MaxBytes:       cfg.Scan.MaxBytes,
		Observer:       rec,
	}
	if info.IsDir() {
		opts.Path = path
	} else {
		opts.File = path
	}
	if cmd.IsSet("jobs") {
		opts.Jobs = cmd.Int("jobs")
	}
	if cmd.IsSet("max-bytes") {
		opts.MaxBytes = cmd.Int64("max-bytes")
	}

	result, err := pyscribe.ParseFiles(opts)
	if err != nil {
		return err
	}

	// A single file that fails is the command's failure.
	failed := result.Failed()
	if !info.IsDir() && len(failed) > 0 {
		return failed[0].Err
	}

	items := result.Items()
	reports := pyscribe.Aggregate(items)

	switch format {
	case "json":
		out := parseOutput{Items: items, Reports: reports}
		for _, f := range failed {
			out.Failed = append(out.Failed, failedFile{Path: f.Path, Error: f.Err.Error()})
		}
		if err := output.New(output.Config{Compact: cmd.Bool("compact")}).Write(out); err != nil {
			return err
		}
	default:
		if err := report.WriteTable(os.Stdout, items); err != nil {
			return err
		}
		if err := report.WriteErrors(os.Stderr, failed); err != nil {
			return err
		}
	}

	if md := cmd.String("markdown"); md != "" {
		doc := report.Document{
			Title:    projectTitle(path, info.IsDir()),
			Sections: report.GenerateSections(reports),
		}
		if !cmd.Bool("no-summary") {
			doc.Summary = generateSummary(ctx, cfg, reports)
		}
		if err := os.WriteFile(md, []byte(doc.Markdown()), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		slog.Info("wrote markdown", "path", md)
	}

	if mf := cmd.String("metrics-file"); mf != "" {
		if err := rec.WriteTextfile(mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// generateSummary returns the model's summary, or "" when no key is
// configured or the call fails.
func generateSummary(ctx context.Context, cfg *config.Config, reports pyscribe.Reports) string {
	key, ok := cfg.Gemini.APIKey()
	if !ok {
		slog.Debug("gemini api key not configured, skipping summary")
		return ""
	}

	client, err := summary.NewGeminiClient(ctx, summary.GeminiOptions{
		APIKey:   key,
		Model:    cfg.Gemini.Model,
		Endpoint: cfg.Gemini.Endpoint,
	})
	if err != nil {
		slog.Warn("summary unavailable", "error", err)
		return ""
	}

	return summarize(ctx, client, reports, cfg.Gemini.MaxPayloadBytes)
}

func summarize(ctx context.Context, s summary.Summarizer, reports pyscribe.Reports, maxBytes int) string {
	payload, err := summary.BuildPayload(reports, maxBytes)
	if err != nil {
		slog.Warn("summary unavailable", "error", err)
		return ""
	}

	text, err := s.GenerateSection(ctx, summary.Request{
		Instructions: summary.DefaultInstructions,
		Payload:      payload,
	})
	if err != nil {
		slog.Warn("summary unavailable", "error", err)
		return ""
	}
	return text
}

func projectTitle(path string, isDir bool) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	name := filepath.Base(abs)
	if !isDir {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
