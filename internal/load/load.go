// Package load puts generated JSONL records into a DynamoDB table.
package load

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// https://docs.aws.amazon.com/amazondynamodb/latest/APIReference/API_BatchWriteItem.html
// up to 25 operations per request
const batchSize = 25

const maxLineSize = 1024 * 1024

// Putter writes one batch of at most 25 items.
type Putter interface {
	Put(ctx context.Context, items []interface{}) error
}

type Config struct {
	Logger *slog.Logger
	Putter Putter
	// PartitionKey is the prefix of the partition key value, which becomes
	// PartitionKey:N with N = seq % SplitPartition.
	PartitionKey   string
	KeyAttr        string
	SplitPartition int64
	// Sequence is the number to start from; the first record gets Sequence+1.
	Sequence   int64
	PutWorkers int
	ChanLength int
	// PinPartition routes every partition to its own channel so a worker
	// only ever writes one partition.
	PinPartition bool
	Clock        clockwork.Clock
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Putter == nil {
		return errors.New("putter is required")
	}
	if cfg.PartitionKey == "" {
		return errors.New("partition key must be specified")
	}
	if cfg.SplitPartition < 1 {
		return errors.New("split partition must be at least 1")
	}
	if cfg.PutWorkers < 1 {
		return errors.New("put workers must be at least 1")
	}
	if cfg.PinPartition && int64(cfg.PutWorkers) < cfg.SplitPartition {
		return errors.New("put workers must be at least split partition")
	}
	if cfg.KeyAttr == "" {
		cfg.KeyAttr = "code"
	}
	if cfg.ChanLength < 1 {
		cfg.ChanLength = cfg.PutWorkers * 2
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Loader struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loader{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Load reads every file and puts its records. It returns the number of
// records written.
func (l *Loader) Load(ctx context.Context, files []string) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	from := l.cfg.Clock.Now()
	seq := l.cfg.Sequence
	var total atomic.Int64

	channels := 1
	if l.cfg.PinPartition {
		channels = int(l.cfg.SplitPartition)
	}
	chPuts := make([]chan map[string]interface{}, channels)
	for i := range chPuts {
		chPuts[i] = make(chan map[string]interface{}, l.cfg.ChanLength)
	}

	egPut, ctxPut := errgroup.WithContext(ctx)
	for i := 0; i < l.cfg.PutWorkers; i++ {
		chPut := chPuts[i%len(chPuts)]
		egPut.Go(func() (retErr error) {
			count := 0
			defer func() {
				if retErr != nil {
					cancel()
				}
				l.log.Debug("put: done", "worker", i, "count", humanize.Comma(int64(count)), "err", retErr)
			}()

			recs := make([]interface{}, 0, batchSize)
			flush := func() error {
				n := len(recs)
				if n == 0 {
					return nil
				}
				if err := l.cfg.Putter.Put(ctxPut, recs); err != nil {
					return err
				}
				count += n
				total.Add(int64(n))
				recs = recs[:0]
				return nil
			}

		loop:
			for {
				select {
				case <-ctxPut.Done():
					return ctxPut.Err()
				case e, ok := <-chPut:
					if !ok {
						break loop
					}
					recs = append(recs, e)
					if len(recs) == cap(recs) {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
			return flush()
		})
	}

	var retErr error
	for _, fn := range files {
		if err := l.loadFile(ctx, fn, &seq, chPuts); err != nil {
			retErr = multierror.Append(retErr, err)
			// keep going to collect the put workers
			break
		}
	}

	for _, chPut := range chPuts {
		close(chPut)
	}
	l.log.Debug("waiting for put workers done")
	if err := egPut.Wait(); err != nil {
		retErr = multierror.Append(retErr, fmt.Errorf("egPut.Wait: %w", err))
	}
	if retErr != nil {
		return total.Load(), retErr
	}

	l.log.Info("load finished", "records", humanize.Comma(total.Load()), "dur", l.cfg.Clock.Since(from))
	return total.Load(), nil
}

func (l *Loader) loadFile(ctx context.Context, fn string, seq *int64, chPuts []chan map[string]interface{}) error {
	l.log.Info("loading", "file", fn)
	fp, err := os.Open(fn)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer fp.Close()

	sc := bufio.NewScanner(fp)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lc := 0
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var item map[string]interface{}
		if err := json.Unmarshal(line, &item); err != nil {
			return fmt.Errorf("%s:%d: json.Unmarshal: %w", fn, lineNum, err)
		}
		if item == nil {
			return fmt.Errorf("%s:%d: not a json object", fn, lineNum)
		}
		lc++

		nextSeq := atomic.AddInt64(seq, 1)
		index := nextSeq % l.cfg.SplitPartition
		now := l.cfg.Clock.Now().Unix()
		item[l.cfg.KeyAttr] = l.cfg.PartitionKey + ":" + strconv.FormatInt(index, 10)
		item["seq"] = nextSeq
		item["created_at"] = now
		item["updated_at"] = now

		chPut := chPuts[0]
		if l.cfg.PinPartition {
			chPut = chPuts[index]
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chPut <- item:
		}

		if nextSeq%1000 == 0 {
			l.log.Info("posted", "file", fn, "recs", humanize.Comma(nextSeq))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: Scan: %w", fn, err)
	}
	l.log.Info("file loaded", "file", fn, "recs", humanize.Comma(int64(lc)))
	return nil
}
