package vocab

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corpusTokens mimics what corpus.Tokenize produces for a small two-line
// corpus: every line is followed by the two sentinel tokens.
func corpusTokens(lines ...[]string) []string {
	var tokens []string
	for _, line := range lines {
		tokens = append(tokens, line...)
		tokens = append(tokens, EndOfSequenceToken, PadToken)
	}
	return tokens
}

// TestBuildFrequencyOrder verifies that ids follow decreasing frequency with
// alphabetical tie-breaking and form a gap-free permutation of 0..N-1.
func TestBuildFrequencyOrder(t *testing.T) {
	tokens := corpusTokens(
		[]string{"the", "cat", "sat"},
		[]string{"the", "dog", "sat"},
		[]string{"the", "cat"},
	)
	// Counts: the=3, <eos>=3, <pad>=3, cat=2, sat=2, dog=1.
	v, err := Build(tokens)
	require.NoError(t, err)
	require.Equal(t, 6, v.Len())

	want := map[string]int32{
		"<eos>": 0, // ties at count 3 resolved alphabetically
		"<pad>": 1,
		"the":   2,
		"cat":   3, // ties at count 2
		"sat":   4,
		"dog":   5,
	}
	for tok, wantID := range want {
		id, ok := v.IDOf(tok)
		require.True(t, ok, "token %q missing", tok)
		assert.Equal(t, wantID, id, "token %q", tok)
		assert.Equal(t, tok, v.TokenOf(id))
	}
}

// TestBuildMostFrequentGetsIDZero checks the dominant token wins id 0 even
// against alphabetically smaller tokens.
func TestBuildMostFrequentGetsIDZero(t *testing.T) {
	tokens := corpusTokens(
		[]string{"zzz", "zzz", "zzz", "zzz", "aaa"},
	)
	v, err := Build(tokens)
	require.NoError(t, err)
	id, ok := v.IDOf("zzz")
	require.True(t, ok)
	assert.Equal(t, int32(0), id)
}

// TestBuildDeterministic verifies the vocabulary depends only on the token
// multiset, not on the order tokens arrive in.
func TestBuildDeterministic(t *testing.T) {
	tokens := corpusTokens(
		[]string{"a", "b", "c", "a", "b", "a"},
		[]string{"d", "e", "d"},
	)
	v1, err := Build(tokens)
	require.NoError(t, err)

	shuffled := make([]string, len(tokens))
	copy(shuffled, tokens)
	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	v2, err := Build(shuffled)
	require.NoError(t, err)

	require.Equal(t, v1.Len(), v2.Len())
	for id := int32(0); id < int32(v1.Len()); id++ {
		assert.Equal(t, v1.TokenOf(id), v2.TokenOf(id), "id %d", id)
	}
	assert.Equal(t, v1.Markers(), v2.Markers())
}

// TestBuildEmptyCorpus verifies construction fails with ErrMissingMarker and
// returns no partial vocabulary.
func TestBuildEmptyCorpus(t *testing.T) {
	v, err := Build(nil)
	require.ErrorIs(t, err, ErrMissingMarker)
	assert.Nil(t, v)
}

// TestBuildMissingMarker verifies each sentinel is required individually.
func TestBuildMissingMarker(t *testing.T) {
	_, err := Build([]string{"a", "b", PadToken})
	require.ErrorIs(t, err, ErrMissingMarker)

	_, err = Build([]string{"a", "b", EndOfSequenceToken})
	require.ErrorIs(t, err, ErrMissingMarker)
}

// TestMarkers verifies the marker ids come from the same frequency ordering
// as every other token: with equal counts, "<eos>" sorts before "<pad>".
func TestMarkers(t *testing.T) {
	v, err := Build(corpusTokens([]string{"x"}, []string{"y"}))
	require.NoError(t, err)
	m := v.Markers()
	assert.Equal(t, int32(0), m.EOS)
	assert.Equal(t, int32(1), m.Pad)

	eos, err := v.SpecialTokenID(TokEndOfSequence)
	require.NoError(t, err)
	assert.Equal(t, m.EOS, eos)
	pad, err := v.SpecialTokenID(TokPad)
	require.NoError(t, err)
	assert.Equal(t, m.Pad, pad)

	_, err = v.SpecialTokenID(SpecialToken(99))
	assert.Error(t, err)
}

// TestEncodeRoundTrip verifies Decode(Encode(tokens)) reproduces the token
// sequence exactly when nothing is out of vocabulary.
func TestEncodeRoundTrip(t *testing.T) {
	tokens := corpusTokens(
		[]string{"no", "it", "was", "not", "black", "monday"},
		[]string{"it", "was", "not"},
	)
	v, err := Build(tokens)
	require.NoError(t, err)

	ids := v.Encode(tokens)
	require.Len(t, ids, len(tokens))
	assert.Equal(t, tokens, v.Decode(ids))
}

// TestEncodeDropsOOV verifies out-of-vocabulary tokens are dropped from the
// id stream rather than mapped to a placeholder.
func TestEncodeDropsOOV(t *testing.T) {
	v, err := Build(corpusTokens([]string{"a", "b"}))
	require.NoError(t, err)

	input := []string{"a", "unseen", "b", EndOfSequenceToken}
	ids := v.Encode(input)
	assert.Less(t, len(ids), len(input))
	assert.Equal(t, []string{"a", "b", EndOfSequenceToken}, v.Decode(ids))
}

// TestIDOfUnknown verifies lookups of unknown tokens report absence instead
// of an unknown-token id.
func TestIDOfUnknown(t *testing.T) {
	v, err := Build(corpusTokens([]string{"a"}))
	require.NoError(t, err)
	_, ok := v.IDOf("never-seen")
	assert.False(t, ok)
}
