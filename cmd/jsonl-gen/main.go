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

	flag "github.com/spf13/pflag"

	"github.com/tckz/go-jsonl-gen/internal/config"
	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/logger"
	"github.com/tckz/go-jsonl-gen/internal/output"
	"github.com/tckz/go-jsonl-gen/internal/schema"
	"github.com/tckz/go-jsonl-gen/internal/writer"
)

var version string

func main() {
	opts, err := config.Load("jsonl-gen", os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		// verbosity is unknown until options are parsed
		report(logger.New(os.Stderr, false), err)
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println(version)
		return
	}

	log := logger.New(os.Stderr, opts.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, log, opts, os.Stdout); err != nil {
		report(log, err)
		cancel()
		os.Exit(1)
	}
	log.Info("exiting now")
}

// report logs a terminal error along with its failure kind.
func report(log *slog.Logger, err error) {
	kind := "unknown"
	if k, ok := failure.KindOf(err); ok {
		kind = k.String()
	}
	log.Error(err.Error()+" Exiting now.", "kind", kind)
}

func run(ctx context.Context, log *slog.Logger, opts config.Options, stdout io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	workers := opts.EffectiveWorkers()
	if workers < opts.Workers {
		log.Warn("multiprocessing capped at cpu count", "requested", opts.Workers, "workers", workers)
	}

	dir, err := output.ResolveDir(opts.Path)
	if err != nil {
		return err
	}

	compiler, err := schema.NewCompiler(schema.CompilerConfig{Logger: log})
	if err != nil {
		return fmt.Errorf("schema.NewCompiler: %w", err)
	}
	s, err := compiler.Load(opts.Schema)
	if err != nil {
		return err
	}

	if opts.Clear {
		if _, err := output.Clear(log, dir, opts.File); err != nil {
			return err
		}
	}

	if opts.Count == 0 {
		return writer.Console(log, stdout, s, opts.Lines)
	}

	w, err := writer.New(writer.Config{
		Logger:   log,
		Schema:   s,
		BasePath: filepath.Join(dir, opts.File),
		Files:    opts.Count,
		Lines:    opts.Lines,
		Workers:  workers,
		Naming:   opts.Naming(),
	})
	if err != nil {
		return fmt.Errorf("writer.New: %w", err)
	}
	return w.Run(ctx)
}
