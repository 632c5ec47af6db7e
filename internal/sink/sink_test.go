package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/logger"
	"github.com/tckz/go-jsonl-gen/internal/record"
	"github.com/tckz/go-jsonl-gen/internal/schema"
)

func testRecords(t *testing.T, text string, n int) []*record.Record {
	t.Helper()
	c, err := schema.NewCompiler(schema.CompilerConfig{Logger: logger.Discard()})
	require.NoError(t, err)
	s, err := c.Compile([]byte(text))
	require.NoError(t, err)
	return record.Lines(s, rand.New(rand.NewPCG(1, 2)), n)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestSink_WriteFile(t *testing.T) {
	t.Parallel()

	t.Run("writes one record per line", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "out.jsonl")
		require.NoError(t, WriteFile(path, testRecords(t, `{"name": "str:client"}`, 2)))

		lines := readLines(t, path)
		require.Len(t, lines, 2)
		for _, l := range lines {
			require.JSONEq(t, `{"name": "client"}`, l)
		}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		st, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o644), st.Mode().Perm())
	})

	t.Run("replaces existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out.jsonl")
		require.NoError(t, os.WriteFile(path, []byte("stale\nstale\nstale\n"), 0o644))
		require.NoError(t, WriteFile(path, testRecords(t, `{"n": "int:1"}`, 1)))
		require.Equal(t, []string{`{"n":1}`}, readLines(t, path))
	})

	t.Run("missing directory is a write error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nope", "out.jsonl")
		err := WriteFile(path, testRecords(t, `{"n": "int:1"}`, 1))
		require.ErrorIs(t, err, failure.Write)
		require.Contains(t, err.Error(), "Writing file "+path+" failed.")
	})

	t.Run("failed rename leaves nothing behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "out.jsonl")
		require.NoError(t, os.Mkdir(target, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o644))

		err := WriteFile(target, testRecords(t, `{"n": "int:1"}`, 3))
		require.ErrorIs(t, err, failure.Write)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			require.False(t, strings.HasPrefix(e.Name(), ".tmp-"), "temp file left: %s", e.Name())
		}
	})
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("boom") }

type countingWriter struct {
	bytes.Buffer
	calls int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	return w.Buffer.Write(p)
}

func TestSink_WriteConsole(t *testing.T) {
	t.Parallel()

	t.Run("single write, newline separated", func(t *testing.T) {
		t.Parallel()
		var w countingWriter
		require.NoError(t, WriteConsole(&w, testRecords(t, `{"name": "str:n", "age": "int:55"}`, 3)))
		require.Equal(t, 1, w.calls)
		require.Equal(t, strings.Repeat(`{"name":"n","age":55}`+"\n", 3), w.String())
	})

	t.Run("each line is valid json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, WriteConsole(&buf, testRecords(t, `{"id": "str:rand", "at": "timestamp:"}`, 5)))
		for _, l := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(l), &m))
			require.Len(t, m, 2)
		}
	})

	t.Run("writer error", func(t *testing.T) {
		t.Parallel()
		err := WriteConsole(errWriter{}, testRecords(t, `{"n": "int:1"}`, 1))
		require.Error(t, err)
		require.Contains(t, err.Error(), "boom")
	})
}
