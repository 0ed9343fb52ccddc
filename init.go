package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/phobologic/execscan/internal/config"
)

const (
	sentinelStart = "# execscan:start"
	sentinelEnd   = "# execscan:end"
)

// initCommand implements `execscan init`, which writes (or updates) the
// default settings in a config file.
func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "write the default settings to a config file",
		ArgsUsage: "[path]",
		Description: `Write the default execscan settings to a YAML config file. The settings are
wrapped in sentinel comments so they can be refreshed in place on later runs
without touching surrounding content. Creates the file if it does not exist.

path defaults to ./` + config.DefaultFile + `.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print what would be written without modifying the file",
			},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	section, err := generateSection()
	if err != nil {
		return err
	}

	dryRun := c.Bool("dry-run")
	stdout, stderr := c.App.Writer, c.App.ErrWriter

	// --dry-run with no path: just print the section itself.
	if dryRun && c.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.DefaultFile
	if c.NArg() > 0 {
		path = c.Args().First()
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote execscan settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped default settings.
func generateSection() (string, error) {
	body, err := config.NewDefault().Marshal()
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	head := `# Settings for execscan. Keys left out keep their defaults.
# markers and result-type decide which candidate lines count as uses;
# static-classes are class names treated as fixed references.
`
	return sentinelStart + "\n" + head + strings.TrimSuffix(string(body), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
