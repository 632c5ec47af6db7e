// Package sink serializes records as JSON lines.
package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/record"
)

const (
	bufSize  = 64 * 1024
	filePerm = 0o644
)

func encode(w io.Writer, records []*record.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("Encode: %w", err)
		}
	}
	return nil
}

// WriteFile writes records to path, one per line. The content goes to a
// temporary file in the same directory which is renamed over path once
// complete, so a failed write never leaves a partial file behind.
func WriteFile(path string, records []*record.Record) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return failure.Wrap(failure.Write, fmt.Errorf("os.CreateTemp: %w", err), path)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr == nil {
			return
		}
		_ = tmp.Close()
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			retErr = multierror.Append(retErr, fmt.Errorf("os.Remove: %w", err))
		}
	}()

	bw := bufio.NewWriterSize(tmp, bufSize)
	if err := encode(bw, records); err != nil {
		return failure.Wrap(failure.Write, err, path)
	}
	if err := bw.Flush(); err != nil {
		return failure.Wrap(failure.Write, fmt.Errorf("Flush: %w", err), path)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return failure.Wrap(failure.Write, fmt.Errorf("Chmod: %w", err), path)
	}
	if err := tmp.Close(); err != nil {
		return failure.Wrap(failure.Write, fmt.Errorf("Close: %w", err), path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return failure.Wrap(failure.Write, fmt.Errorf("os.Rename: %w", err), path)
	}
	return nil
}

// WriteConsole serializes all records and hands them to w in a single write.
func WriteConsole(w io.Writer, records []*record.Record) error {
	var buf bytes.Buffer
	if err := encode(&buf, records); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	return nil
}
