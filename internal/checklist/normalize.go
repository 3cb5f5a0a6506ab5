package checklist

import (
	"strings"
	"unicode"
)

// Normalized is the cleaned form of a raw transcript: the lowercased,
// whitespace-trimmed text plus its ordered alphabetic word tokens.
type Normalized struct {
	// Text is the full transcript, lowercased and trimmed.
	Text string

	// Tokens are the maximal runs of letters in Text, in order. Digits and
	// punctuation act as separators and never appear inside a token.
	Tokens []string
}

// Normalize lowercases and trims raw and extracts its word tokens. It is
// deterministic and total: empty or non-alphabetic input yields an empty
// token list, never an error.
func Normalize(raw string) Normalized {
	text := strings.ToLower(strings.TrimSpace(raw))
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	return Normalized{Text: text, Tokens: tokens}
}
