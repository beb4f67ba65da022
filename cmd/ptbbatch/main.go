// Command ptbbatch is a small demonstration driver: it loads (optionally
// downloading) the PTB splits, builds the vocabulary and prints the marker
// ids and the shapes of the first few training batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/gonlm/go-ptb/batcher"
	"github.com/gonlm/go-ptb/corpus"
)

var (
	flagData      = flag.String("data", "", "Directory holding ptb.train.txt, ptb.valid.txt and ptb.test.txt.")
	flagDownload  = flag.Bool("download", false, "Download the PTB archive into -data if the splits are missing.")
	flagBatchSize = flag.Int("batch_size", 20, "Sentences per batch.")
	flagSeqLen    = flag.Int("sequence_length", 20, "Time steps per batch row.")
	flagNumPrint  = flag.Int("print_batches", 2, "How many batches to print before stopping.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagData == "" {
		fmt.Fprintln(os.Stderr, "ptbbatch: -data is required")
		os.Exit(2)
	}
	if err := run(); err != nil {
		klog.Exitf("ptbbatch: %+v", err)
	}
}

func run() error {
	if *flagDownload {
		if err := corpus.Download(context.Background(), *flagData); err != nil {
			return err
		}
	}

	data, err := corpus.Load(*flagData)
	if err != nil {
		return err
	}
	m := data.Vocab.Markers()
	fmt.Println("<eos>:", m.EOS)
	fmt.Println("<pad>:", m.Pad)
	fmt.Println("vocabulary size:", data.Vocab.Len())

	b, err := batcher.New(batcher.Config{
		BatchSize:      *flagBatchSize,
		SequenceLength: *flagSeqLen,
	})
	if err != nil {
		return err
	}
	batches, err := b.Batches(data.Train, m)
	if err != nil {
		return err
	}

	printed := 0
	for batch := range batches {
		fmt.Printf("batch %d: input=%v target=%v weight=%v\n",
			printed, batch.Input.Shape(), batch.Target.Shape(), batch.Weight.Shape())
		printed++
		if printed >= *flagNumPrint {
			break
		}
	}
	return nil
}
