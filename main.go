// execscan classifies the arguments of process-execution calls in Java
// sources as hardcoded, taken from method input, or other.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/phobologic/execscan/internal/cache"
	"github.com/phobologic/execscan/internal/config"
	"github.com/phobologic/execscan/internal/grep"
	"github.com/phobologic/execscan/internal/model"
	"github.com/phobologic/execscan/internal/report"
	"github.com/phobologic/execscan/internal/scan"
	"github.com/phobologic/execscan/internal/toon"
)

var version = "dev"

func init() {
	// -h lists hardcoded uses and -v turns on debug logging.
	cli.HelpFlag = &cli.BoolFlag{Name: "help", Aliases: []string{"?"}, Usage: "show help"}
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Aliases: []string{"V"}, Usage: "show version and exit"}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	app := newApp(stdin, stdout, stderr)
	return app.RunContext(ctx, append([]string{"execscan"}, args...))
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "execscan",
		Usage:                  "classify the arguments of process-execution calls in Java sources",
		UsageText:              "grep -rn 'exec(' --include='*.java' . | execscan [flags]\nexecscan --scan -p ./repo [flags]",
		Version:                version,
		UseShortOptionHandling: true,
		Reader:                 stdin,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "root folder the grep search ran in",
				Value:   "./",
			},
			&cli.StringFlag{
				Name:    "grep",
				Aliases: []string{"g"},
				Usage:   "grep output file (`path:line:content` records) if not piped in",
			},
			&cli.BoolFlag{
				Name:    "hardcoded",
				Aliases: []string{"h"},
				Usage:   "list hardcoded uses",
			},
			&cli.BoolFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "list uses with method input",
			},
			&cli.BoolFlag{
				Name:    "other",
				Aliases: []string{"o"},
				Usage:   "list other uses",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (defaults to " + config.DefaultFile + " under the root)",
			},
			&cli.BoolFlag{
				Name:  "scan",
				Usage: "find candidates by parsing the sources instead of reading grep output",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: table or toon",
				Value:   "table",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "cache file for the rendered output",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show per-file progress on stderr",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug diagnostics",
			},
		},
		Commands: []*cli.Command{initCommand()},
		Action: func(c *cli.Context) error {
			return analyzeAction(c, stdin, stdout, stderr)
		},
	}
}

func analyzeAction(c *cli.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", c.Args().First())
	}

	format := c.String("format")
	if format != "table" && format != "toon" {
		return fmt.Errorf("unsupported format %q", format)
	}

	root, err := filepath.Abs(c.String("path"))
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := loadConfig(c, root)
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := config.NewLogger(stderr, level)

	filter := cfg.Filter()

	var files []model.FileCandidates
	if c.Bool("scan") {
		files, err = scan.Candidates(c.Context, root, filter, cfg.Call, logger)
		if err != nil {
			return fmt.Errorf("discovering candidates: %w", err)
		}
	} else {
		r, closeInput, err := grepInput(c.String("grep"), stdin)
		if err != nil {
			return err
		}
		files, err = grep.Parse(r, logger)
		closeInput()
		if err != nil {
			return fmt.Errorf("reading grep input: %w", err)
		}
		files = scan.Filter(files, filter)
	}

	listings := report.Listings{
		Hardcoded: c.Bool("hardcoded"),
		Input:     c.Bool("input"),
		Other:     c.Bool("other"),
	}

	cachePath := c.String("cache")
	var key string
	if cachePath != "" {
		settings, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		key = cache.Key(root, files,
			version, format, string(settings),
			strconv.FormatBool(listings.Hardcoded),
			strconv.FormatBool(listings.Input),
			strconv.FormatBool(listings.Other))
		if out, ok := cache.Lookup(cachePath, key); ok {
			_, _ = io.WriteString(stdout, out)
			return nil
		}
	}

	opts := []scan.Option{scan.WithConfig(cfg), scan.WithLogger(logger)}
	if c.Bool("progress") {
		opts = append(opts, scan.WithProgress(stderr))
	}
	sites, err := scan.New(root, opts...).Run(c.Context, files)
	if err != nil {
		return err
	}

	r := report.Summarize(filepath.Base(root), files, sites, cfg.IsTestPath)

	var output string
	switch format {
	case "toon":
		output = toon.Encode(r)
	default:
		output = report.Text(r, listings)
	}

	if cachePath != "" {
		if err := cache.Store(cachePath, key, output+"\n"); err != nil {
			logger.Warn("failed to write cache", slog.String("path", cachePath), slog.Any("err", err))
		}
	}

	_, _ = fmt.Fprintln(stdout, output)
	return nil
}

// loadConfig reads the file named by --config, or the default file under
// root when it exists.
func loadConfig(c *cli.Context, root string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOptional(filepath.Join(root, config.DefaultFile))
}

// grepInput opens the grep file, or falls back to stdin when it is piped.
func grepInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening grep file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil, errors.New("no grep input given: pipe grep output in, or use -g or --scan")
	}
	return stdin, func() {}, nil
}
