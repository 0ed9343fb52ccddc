// Package cache stores rendered output keyed by a digest of its inputs.
package cache

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/phobologic/execscan/internal/model"
)

const header = "# execscan cache "

// Key digests everything that determines a run's output: the settings, the
// candidate lines and the contents of every candidate file. A file that
// cannot be read contributes a fixed marker in place of its contents.
func Key(root string, files []model.FileCandidates, settings ...string) string {
	d := xxhash.New()
	for _, s := range settings {
		writeField(d, s)
	}
	for _, f := range files {
		writeField(d, f.Path)
		for _, line := range f.Lines {
			writeField(d, strconv.Itoa(line))
		}
		if err := writeFile(d, filepath.Join(root, f.Path)); err != nil {
			writeField(d, "\x00unreadable")
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// writeField writes s with a terminator so adjacent fields cannot run
// together.
func writeField(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}

func writeFile(d *xxhash.Digest, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(d, f); err != nil {
		return err
	}
	_, _ = d.Write([]byte{0})
	return nil
}

// Lookup returns the output stored at path when it was stored under key.
func Lookup(path, key string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first, err := r.ReadString('\n')
	if err != nil || strings.TrimSuffix(first, "\n") != header+key {
		return "", false
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return "", false
	}
	return string(rest), true
}

// Store writes output to path under key, replacing any earlier entry.
func Store(path, key, output string) error {
	if key == "" {
		return errors.New("empty cache key")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(header+key+"\n"+output), 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
