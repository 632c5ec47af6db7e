package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/tckz/go-jsonl-gen/internal/load"
	"github.com/tckz/go-jsonl-gen/internal/logger"
)

var (
	optTable          = flag.String("table", "", "table name to load to")
	optPartitionKey   = flag.String("partition-key", "", "prefix of partition key")
	optKeyAttr        = flag.String("key-attr", "code", "attribute name of the partition key")
	optSplitPartition = flag.Int64("split-partition", 10, "number of partitions to split")
	optSequence       = flag.Int64("sequence", 0, "sequence number to start from")
	optPutWorkers     = flag.Int("put-workers", 10, "number of workers to put items")
	optChanLength     = flag.Int("chan-length", 100, "length of channel to put items")
	optPinPartition   = flag.Bool("pin-partition", false, "dedicate each put worker to a single partition")
	optVerbose        = flag.Bool("verbose", false, "enable debug logging")
	optVersion        = flag.Bool("version", false, "show version")
)

var version string

func main() {
	flag.Parse()

	if *optVersion {
		fmt.Println(version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "*** %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *optTable == "" {
		return errors.New("--table must be specified")
	}
	if *optPartitionKey == "" {
		return errors.New("--partition-key must be specified")
	}
	if flag.NArg() == 0 {
		return errors.New("no input files")
	}

	log := logger.New(os.Stderr, *optVerbose)
	log.Info("loading", "table", *optTable, "partitionKey", *optPartitionKey)

	l, err := load.New(load.Config{
		Logger:         log,
		Putter:         load.NewSessionPutter(*optTable),
		PartitionKey:   *optPartitionKey,
		KeyAttr:        *optKeyAttr,
		SplitPartition: *optSplitPartition,
		Sequence:       *optSequence,
		PutWorkers:     *optPutWorkers,
		ChanLength:     *optChanLength,
		PinPartition:   *optPinPartition,
	})
	if err != nil {
		return fmt.Errorf("load.New: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, err = l.Load(ctx, flag.Args())
	return err
}
