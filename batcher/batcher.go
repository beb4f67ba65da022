// Package batcher slices an encoded id stream into fixed-shape mini-batches
// for teacher-forced sequence training.
//
// The stream is cut into sentences after every end-of-sequence id, each
// sentence is padded or truncated to a fixed width, and consecutive blocks of
// sentences are emitted as (input, target, weight) tensor triples. The target
// matrix is the input matrix shifted one column to the left, the weight
// matrix is all ones.
package batcher

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"github.com/gonlm/go-ptb/vocab"
)

var (
	// ErrInvalidBatchSize is returned by New when Config.BatchSize < 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
	// ErrInvalidSequenceLength is returned by New when Config.SequenceLength < 1.
	ErrInvalidSequenceLength = errors.New("sequence length must be at least 1")
	// ErrEpochSizeOverride is returned by Batches when Config.EpochSizeOverride
	// is set. The option is reserved and deliberately unimplemented; setting it
	// fails hard instead of being silently ignored.
	ErrEpochSizeOverride = errors.New("epoch size override is not implemented")
)

// Config holds the batching parameters.
type Config struct {
	// BatchSize is the number of sentences per batch. Must be >= 1.
	BatchSize int
	// SequenceLength is the number of time steps per batch row. Sentences
	// longer than SequenceLength+1 ids are silently truncated, shorter ones
	// are right-padded with the pad id. Must be >= 1.
	SequenceLength int
	// EpochSizeOverride is reserved for a future fixed-epoch-size mode.
	// Any non-zero value makes Batches fail with ErrEpochSizeOverride.
	EpochSizeOverride int
}

// Batch is one training step worth of data. All three tensors are int32 and
// of shape [BatchSize, SequenceLength].
type Batch struct {
	// Input holds columns [0, SequenceLength) of a block of padded sentences.
	Input *tensors.Tensor
	// Target holds columns [1, SequenceLength+1) of the same block, so each
	// target row is the input row shifted one step: Target[:, t] == Input[:, t+1].
	Target *tensors.Tensor
	// Weight is all ones, shaped like Input.
	Weight *tensors.Tensor
}

// Batcher produces batches for one Config. It holds no state across calls;
// every Batches invocation recomputes from scratch.
type Batcher struct {
	cfg Config
}

// New validates cfg and returns a Batcher for it.
func New(cfg Config) (*Batcher, error) {
	if cfg.BatchSize < 1 {
		return nil, errors.Wrapf(ErrInvalidBatchSize, "got %d", cfg.BatchSize)
	}
	if cfg.SequenceLength < 1 {
		return nil, errors.Wrapf(ErrInvalidSequenceLength, "got %d", cfg.SequenceLength)
	}
	return &Batcher{cfg: cfg}, nil
}

// EpochSize returns the number of batches one pass over numSentences
// sentences produces: numSentences/BatchSize, remainder sentences dropped.
func (b *Batcher) EpochSize(numSentences int) int {
	return numSentences / b.cfg.BatchSize
}

// Batches returns a finite, restartable iterator over the batches derived
// from ids. Iterate with range; stopping early is allowed and has no cost
// beyond the already-emitted batches.
//
// Sentences are cut immediately after every occurrence of m.EOS (inclusive);
// a trailing fragment without a terminator is a sentence of its own. Rows
// shorter than SequenceLength+1 are padded with m.Pad, longer ones are
// silently truncated. If fewer than BatchSize sentences exist, the iterator
// is empty; that is not an error.
func (b *Batcher) Batches(ids []int32, m vocab.Markers) (func(yield func(Batch) bool), error) {
	if b.cfg.EpochSizeOverride != 0 {
		return nil, errors.Wrapf(ErrEpochSizeOverride, "got %d", b.cfg.EpochSizeOverride)
	}

	sentences := splitSentences(ids, m.EOS)
	rows := padSentences(sentences, b.cfg.SequenceLength, m.Pad)
	batchSize, seqLen := b.cfg.BatchSize, b.cfg.SequenceLength
	epochSize := len(rows) / batchSize

	return func(yield func(Batch) bool) {
		for i := range epochSize {
			block := rows[i*batchSize : (i+1)*batchSize]
			input := make([]int32, 0, batchSize*seqLen)
			target := make([]int32, 0, batchSize*seqLen)
			for _, row := range block {
				input = append(input, row[:seqLen]...)
				target = append(target, row[1:]...)
			}
			weight := make([]int32, batchSize*seqLen)
			for j := range weight {
				weight[j] = 1
			}
			batch := Batch{
				Input:  tensors.FromFlatDataAndDimensions(input, batchSize, seqLen),
				Target: tensors.FromFlatDataAndDimensions(target, batchSize, seqLen),
				Weight: tensors.FromFlatDataAndDimensions(weight, batchSize, seqLen),
			}
			if !yield(batch) {
				return
			}
		}
	}, nil
}

// splitSentences cuts ids immediately after every occurrence of eos. The
// fragment after the last eos, if non-empty, is also a sentence.
func splitSentences(ids []int32, eos int32) [][]int32 {
	var sentences [][]int32
	start := 0
	for i, id := range ids {
		if id == eos {
			sentences = append(sentences, ids[start:i+1])
			start = i + 1
		}
	}
	if start < len(ids) {
		sentences = append(sentences, ids[start:])
	}
	return sentences
}

// padSentences returns one row of width seqLen+1 per sentence, filled with
// the first seqLen+1 ids of the sentence and right-padded with pad.
func padSentences(sentences [][]int32, seqLen int, pad int32) [][]int32 {
	width := seqLen + 1
	rows := make([][]int32, len(sentences))
	for i, sent := range sentences {
		row := make([]int32, width)
		for j := range row {
			row[j] = pad
		}
		copy(row, sent) // copies at most width ids, truncating longer sentences
		rows[i] = row
	}
	return rows
}
