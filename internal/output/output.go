// Package output prepares the output directory.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/naming"
)

const dirPerm = 0o755

// ResolveDir makes path absolute and creates it when missing. An existing
// path that is not a directory is a Directory error.
func ResolveDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("filepath.Abs: %w", err)
	}
	st, err := os.Stat(abs)
	switch {
	case err == nil:
		if !st.IsDir() {
			return "", failure.New(failure.Directory, abs)
		}
		return abs, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(abs, dirPerm); err != nil {
			return "", fmt.Errorf("os.MkdirAll: %w", err)
		}
		return abs, nil
	default:
		return "", fmt.Errorf("os.Stat: %w", err)
	}
}

// Pattern matches the files a run with base name base may produce.
func Pattern(base string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) +
		`(` + regexp.QuoteMeta(naming.Separator) + `[0-9A-Za-z\-]+)?` + regexp.QuoteMeta(naming.Ext) + `$`)
}

// Clear removes the files in dir left by earlier runs with base name base and
// returns how many were removed. Other files are left alone.
func Clear(log *slog.Logger, dir, base string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("os.ReadDir: %w", err)
	}

	re := Pattern(base)
	var targets []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		targets = append(targets, filepath.Join(dir, e.Name()))
	}

	log.Info("clearing output path", "dir", dir)
	for _, path := range targets {
		log.Info("removing file", "path", path)
		if err := os.Remove(path); err != nil {
			return 0, failure.Wrap(failure.Remove, err, path)
		}
	}
	if len(targets) == 0 {
		log.Info("no files to clear")
	} else {
		log.Info("clearing output path finished", "removed", len(targets))
	}
	return len(targets), nil
}
