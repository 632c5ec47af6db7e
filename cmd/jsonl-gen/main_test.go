package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tckz/go-jsonl-gen/internal/config"
	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/logger"
)

func testOptions(dir string) config.Options {
	o := config.Defaults()
	o.Path = dir
	o.File = "out"
	o.ConfigFile = ""
	return o
}

func TestRun_SingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	o := testOptions(dir)
	o.Schema = `{"name":"str:client"}`
	o.Lines = 2
	o.Count = 1

	require.NoError(t, run(context.Background(), logger.Discard(), o, &bytes.Buffer{}))

	b, err := os.ReadFile(filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		require.JSONEq(t, `{"name": "client"}`, l)
	}
}

func TestRun_ClearThenWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, f := range []string{"out_9.jsonl", "out_old.jsonl", "keep.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x\n"), 0o644))
	}

	o := testOptions(dir)
	o.Count = 3
	o.Lines = 1
	o.Clear = true
	o.Workers = 2
	require.NoError(t, run(context.Background(), logger.Discard(), o, &bytes.Buffer{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	require.Equal(t, []string{"keep.txt", "out_1.jsonl", "out_2.jsonl", "out_3.jsonl"}, names)
}

func TestRun_Console(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	o := testOptions(dir)
	o.Count = 0
	o.Lines = 3
	o.Schema = `{"n": "int:1"}`

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), logger.Discard(), o, &out))
	require.Equal(t, strings.Repeat(`{"n":1}`+"\n", 3), out.String())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRun_SchemaFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	schemaPath := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"age": "int:rand(1, 3)"}`), 0o644))

	o := testOptions(dir)
	o.Schema = schemaPath
	o.Count = 0
	o.Lines = 1
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), logger.Discard(), o, &out))
	require.Contains(t, out.String(), `"age":`)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(t *testing.T, o *config.Options)
		kind   failure.Kind
	}{
		{"negative count", func(_ *testing.T, o *config.Options) { o.Count = -1 }, failure.Count},
		{"bad schema json", func(_ *testing.T, o *config.Options) { o.Schema = "not json" }, failure.Format},
		{"bad type", func(_ *testing.T, o *config.Options) { o.Schema = `{"f": "bool:"}` }, failure.Type},
		{"missing schema file", func(t *testing.T, o *config.Options) {
			o.Schema = filepath.Join(t.TempDir(), "missing.json")
		}, failure.FileNotFound},
		{"path is a file", func(t *testing.T, o *config.Options) {
			p := filepath.Join(t.TempDir(), "f")
			require.NoError(t, os.WriteFile(p, nil, 0o644))
			o.Path = p
		}, failure.Directory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := testOptions(t.TempDir())
			tt.mutate(t, &o)
			err := run(context.Background(), logger.Discard(), o, &bytes.Buffer{})
			require.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestReport(t *testing.T) {
	t.Parallel()

	t.Run("config error", func(t *testing.T) {
		t.Parallel()
		getenv := func(k string) string {
			if k == "JSONLGEN_COUNT" {
				return "many"
			}
			return ""
		}
		_, err := config.Load("jsonl-gen", []string{"--config="}, getenv)
		require.Error(t, err)

		var buf bytes.Buffer
		report(slog.New(slog.NewTextHandler(&buf, nil)), err)
		require.Contains(t, buf.String(), "level=ERROR")
		require.Contains(t, buf.String(), "Exiting now.")
		require.Contains(t, buf.String(), "kind=unknown")
	})

	t.Run("failure kind", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		report(slog.New(slog.NewTextHandler(&buf, nil)), failure.New(failure.Count, "Files", 0))
		require.Contains(t, buf.String(), `msg="Files count cannot be less than 0. Exiting now."`)
		require.Contains(t, buf.String(), "kind=count")
	})
}
