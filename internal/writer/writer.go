// Package writer produces output files from a compiled schema, optionally
// spreading the files over a pool of workers.
package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/tckz/go-jsonl-gen/internal/naming"
	"github.com/tckz/go-jsonl-gen/internal/record"
	"github.com/tckz/go-jsonl-gen/internal/schema"
	"github.com/tckz/go-jsonl-gen/internal/sink"
)

type Config struct {
	Logger *slog.Logger
	Schema *schema.Schema
	// BasePath is the output directory joined with the base file name,
	// without suffix or extension.
	BasePath string
	Files    int
	Lines    int
	// Workers is used as given; capping it to the CPU count is up to the
	// caller.
	Workers int
	Naming  naming.Mode
	Clock   clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Schema == nil {
		return errors.New("schema is required")
	}
	if cfg.BasePath == "" {
		return errors.New("base path is required")
	}
	if cfg.Files < 1 {
		return errors.New("files must be at least 1")
	}
	if cfg.Lines < 1 {
		return errors.New("lines must be at least 1")
	}
	if cfg.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if cfg.Naming == "" {
		cfg.Naming = naming.Count
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Writer struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// newRand returns an independently seeded source for one worker.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Run writes all files. With one worker it runs in the calling goroutine.
// The first failure aborts the run; files already written stay on disk.
func (w *Writer) Run(ctx context.Context) error {
	from := w.cfg.Clock.Now()
	counter := NewCounter()

	var err error
	if w.cfg.Workers == 1 {
		err = w.runSequential(ctx, counter)
	} else {
		err = w.runConcurrent(ctx, counter)
	}
	if err != nil {
		return err
	}

	w.log.Info("writing data finished",
		"files", humanize.Comma(int64(counter.Claimed())),
		"records", humanize.Comma(int64(counter.Claimed())*int64(w.cfg.Lines)),
		"dur", w.cfg.Clock.Since(from))
	return nil
}

func (w *Writer) runSequential(ctx context.Context, counter *Counter) error {
	rng := newRand()
	for range w.cfg.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeFile(counter, rng); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) runConcurrent(ctx context.Context, counter *Counter) error {
	chTask := make(chan struct{}, w.cfg.Workers*2)
	eg, ctxTask := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Workers; i++ {
		eg.Go(func() (retErr error) {
			count := 0
			defer func() {
				w.log.Debug("worker done", "worker", i, "files", count, "err", retErr)
			}()

			rng := newRand()
			for {
				select {
				case <-ctxTask.Done():
					return ctxTask.Err()
				case _, ok := <-chTask:
					if !ok {
						return nil
					}
					if err := ctxTask.Err(); err != nil {
						return err
					}
					if err := w.writeFile(counter, rng); err != nil {
						return err
					}
					count++
				}
			}
		})
	}

	sent := 0
loop:
	for sent < w.cfg.Files {
		select {
		case <-ctxTask.Done():
			break loop
		case chTask <- struct{}{}:
			sent++
		}
	}
	close(chTask)

	w.log.Debug("waiting for workers done")
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("eg.Wait: %w", err)
	}
	if sent < w.cfg.Files {
		return ctx.Err()
	}
	return nil
}

func (w *Writer) writeFile(counter *Counter, rng *rand.Rand) error {
	index := counter.Claim()
	path := naming.FileName(w.cfg.BasePath, w.cfg.Naming, index, w.cfg.Files, rng)

	w.log.Info(fmt.Sprintf("generating data %s/%s", humanize.Comma(int64(index+1)), humanize.Comma(int64(w.cfg.Files))))
	recs := record.Lines(w.cfg.Schema, rng, w.cfg.Lines)

	w.log.Debug("writing data to file", "path", path)
	if err := sink.WriteFile(path, recs); err != nil {
		return err
	}
	w.log.Info("writing data to file finished", "path", path)
	return nil
}

// Console generates lines records and prints them to out.
func Console(log *slog.Logger, out io.Writer, s *schema.Schema, lines int) error {
	log.Info("generating data started")
	recs := record.Lines(s, newRand(), lines)
	log.Info("generating data finished, printing to console", "records", humanize.Comma(int64(len(recs))))
	return sink.WriteConsole(out, recs)
}
