package vocab

import "github.com/pkg/errors"

// SpecialToken is an enum of the sentinel tokens with vocabulary-dependent ids.
type SpecialToken int

const (
	TokEndOfSequence SpecialToken = iota
	TokPad
)

// String returns the literal token text for the sentinel.
func (s SpecialToken) String() string {
	switch s {
	case TokEndOfSequence:
		return EndOfSequenceToken
	case TokPad:
		return PadToken
	default:
		return "<invalid>"
	}
}

// SpecialTokenID returns the id the vocabulary assigned to the given
// sentinel, or an error if the sentinel is not known.
func (v *Vocabulary) SpecialTokenID(token SpecialToken) (int32, error) {
	switch token {
	case TokEndOfSequence:
		return v.markers.EOS, nil
	case TokPad:
		return v.markers.Pad, nil
	default:
		return 0, errors.Errorf("unknown special token: %d", int(token))
	}
}
