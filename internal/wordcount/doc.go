// Package wordcount turns extracted page text into word frequency counts.
//
// Tokens are produced by UAX #29 word segmentation, filtered down to
// word-like tokens (at least one letter or digit), and case-folded so
// that "The", "the", and "THE" tally as one word across languages.
package wordcount
