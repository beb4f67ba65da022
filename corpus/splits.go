package corpus

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gonlm/go-ptb/vocab"
)

// The three fixed split files of the PTB distribution.
const (
	TrainFile = "ptb.train.txt"
	ValidFile = "ptb.valid.txt"
	TestFile  = "ptb.test.txt"
)

// Data holds the three corpus splits encoded as id streams, plus the
// vocabulary they were encoded with. The vocabulary is built from the train
// split only; tokens in the valid/test splits that never occur in the train
// split are dropped from their id streams.
type Data struct {
	Train []int32
	Valid []int32
	Test  []int32
	Vocab *vocab.Vocabulary
}

// Load reads the three PTB split files from dir, builds the vocabulary from
// the train split and encodes all three splits through it.
func Load(dir string) (*Data, error) {
	trainTokens, err := ReadTokens(filepath.Join(dir, TrainFile))
	if err != nil {
		return nil, err
	}
	v, err := vocab.Build(trainTokens)
	if err != nil {
		return nil, errors.Wrapf(err, "building vocabulary from %s", TrainFile)
	}

	data := &Data{
		Train: v.Encode(trainTokens),
		Vocab: v,
	}
	validTokens, err := ReadTokens(filepath.Join(dir, ValidFile))
	if err != nil {
		return nil, err
	}
	data.Valid = v.Encode(validTokens)

	testTokens, err := ReadTokens(filepath.Join(dir, TestFile))
	if err != nil {
		return nil, err
	}
	data.Test = v.Encode(testTokens)
	return data, nil
}
