// Package vocab builds word-level vocabularies for PTB-style corpora.
//
// A Vocabulary maps whitespace tokens to dense integer ids assigned in
// decreasing frequency order, with ties broken by the token string. The two
// sentinel tokens inserted by the corpus reader at every line break, "<eos>"
// and "<pad>", are required to be present: their ids delimit sentences and
// fill short rows during batching.
package vocab

import (
	"sort"

	"github.com/pkg/errors"
)

const (
	// EndOfSequenceToken is appended after every source line and marks the
	// sentence boundary used by the batcher.
	EndOfSequenceToken = "<eos>"
	// PadToken fills rows shorter than the batcher's matrix width.
	PadToken = "<pad>"
)

// ErrMissingMarker is returned by Build when the token stream is empty or is
// missing one of the sentinel tokens. A corpus read through corpus.ReadTokens
// always carries both unless the source file was empty.
var ErrMissingMarker = errors.New("vocabulary is missing a required marker token")

// Markers holds the vocabulary ids of the two sentinel tokens. They are
// returned from construction and passed explicitly into batching, so no
// process-wide state is involved.
type Markers struct {
	EOS int32
	Pad int32
}

// Vocabulary is an immutable bijection between tokens and ids 0..Len()-1.
// Build is the only constructor.
type Vocabulary struct {
	tokenToID map[string]int32
	idToToken []string
	markers   Markers
}

// Build counts the given tokens and assigns ids in order of decreasing
// frequency, breaking ties by ascending token string. The result is fully
// determined by the token multiset.
//
// It fails with ErrMissingMarker if tokens is empty or lacks either sentinel
// token; no partial vocabulary is returned.
func Build(tokens []string) (*Vocabulary, error) {
	counts := make(map[string]int, len(tokens)/2+1)
	for _, tok := range tokens {
		counts[tok]++
	}

	ordered := make([]string, 0, len(counts))
	for tok := range counts {
		ordered = append(ordered, tok)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ci, cj := counts[ordered[i]], counts[ordered[j]]
		if ci != cj {
			return ci > cj
		}
		return ordered[i] < ordered[j]
	})

	v := &Vocabulary{
		tokenToID: make(map[string]int32, len(ordered)),
		idToToken: ordered,
	}
	for id, tok := range ordered {
		v.tokenToID[tok] = int32(id)
	}

	eos, ok := v.tokenToID[EndOfSequenceToken]
	if !ok {
		return nil, errors.Wrapf(ErrMissingMarker, "%q not in corpus", EndOfSequenceToken)
	}
	pad, ok := v.tokenToID[PadToken]
	if !ok {
		return nil, errors.Wrapf(ErrMissingMarker, "%q not in corpus", PadToken)
	}
	v.markers = Markers{EOS: eos, Pad: pad}
	return v, nil
}

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int { return len(v.idToToken) }

// Markers returns the ids of the end-of-sequence and pad tokens.
func (v *Vocabulary) Markers() Markers { return v.markers }

// IDOf looks up the id of a token.
func (v *Vocabulary) IDOf(token string) (int32, bool) {
	id, ok := v.tokenToID[token]
	return id, ok
}

// TokenOf returns the token for a valid id. It panics on ids outside
// [0, Len()), which cannot occur for ids produced by Encode.
func (v *Vocabulary) TokenOf(id int32) string { return v.idToToken[id] }

// Encode maps tokens to their ids. Tokens not in the vocabulary are silently
// dropped (policy: on_oov=drop), so the output may be shorter than the input
// and sentence boundaries may shift when a dropped token was adjacent to an
// end-of-sequence marker. There is no unknown-token fallback.
func (v *Vocabulary) Encode(tokens []string) []int32 {
	ids := make([]int32, 0, len(tokens))
	for _, tok := range tokens {
		if id, ok := v.tokenToID[tok]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Decode maps ids back to tokens. It is the exact inverse of Encode for
// corpora without out-of-vocabulary tokens.
func (v *Vocabulary) Decode(ids []int32) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = v.idToToken[id]
	}
	return tokens
}
