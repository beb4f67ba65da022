// Package corpus reads PTB-style plain-text corpora and turns them into the
// token and id streams consumed by vocab and batcher.
//
// Corpora are newline-delimited, whitespace-tokenizable text files. The
// reader appends the "<eos>" and "<pad>" sentinel tokens at every line break,
// so both are guaranteed to appear in any non-empty corpus.
package corpus

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
	"golang.org/x/text/unicode/norm"

	"github.com/gonlm/go-ptb/vocab"
)

// Tokenize splits raw corpus text into tokens: every newline becomes the
// two-token sequence "<eos> <pad>", then the text is split on whitespace.
func Tokenize(text string) []string {
	text = strings.ReplaceAll(text, "\n", " "+vocab.EndOfSequenceToken+" "+vocab.PadToken)
	return strings.Fields(text)
}

// ReadTokens reads the whole file at path and tokenizes it with Tokenize.
// The file is memory-mapped and fully materialized; there is no streaming.
func ReadTokens(path string) ([]string, error) {
	return readTokens(path, false)
}

// ReadTokensNFC is ReadTokens with Unicode NFC normalization applied to the
// raw text before tokenization. For ASCII corpora it is identical to
// ReadTokens.
func ReadTokensNFC(path string) ([]string, error) {
	return readTokens(path, true)
}

func readTokens(path string, nfc bool) ([]string, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open corpus file %q", path)
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if len(buf) > 0 {
		if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "failed to read corpus file %q", path)
		}
	}

	text := string(buf)
	if nfc {
		text = norm.NFC.String(text)
	}
	return Tokenize(text), nil
}
