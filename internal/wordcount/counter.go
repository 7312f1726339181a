package wordcount

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
)

// Counter tokenizes text into case-folded word counts.
//
// Design decision: We use uax29 for segmentation rather than a regex
// because:
// 1. UAX #29 boundaries handle scripts without spaces and keep
//    contractions together, where \w+ silently mangles both
// 2. The segmenter allocates nothing per token
// 3. The same rules are used by search engines, so tallies match what
//    readers expect a "word" to be
type Counter struct{}

// NewCounter creates a Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Count segments text by UAX #29 word boundaries, keeps tokens that
// contain at least one letter or digit, case-folds them, and returns
// the frequency map. Punctuation and whitespace tokens never appear
// in the result.
func (c *Counter) Count(text string) map[string]int {
	counts := make(map[string]int)
	if text == "" {
		return counts
	}

	// Casers are stateful, so build one per call to stay safe for
	// concurrent workers.
	fold := cases.Fold()

	tokens := words.FromString(text)
	for tokens.Next() {
		token := tokens.Value()
		if !wordlike(token) {
			continue
		}
		counts[fold.String(token)]++
	}
	return counts
}

// wordlike reports whether the token contains at least one letter or
// digit. UAX #29 emits punctuation and whitespace as tokens too; those
// are not words.
func wordlike(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
