package matcher

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TokenSet is a set of case-folded word tokens.
type TokenSet map[string]struct{}

// Tokenize case-folds text and splits it on every rune that is not a letter or digit.
//
// Text is composed to NFC first, so a decomposed "e\u0301" and a precomposed "é" give the
// same token. Empty pieces are discarded, so Tokenize("") and Tokenize(" - ") are both empty.
// There is no stemming and no stop-word list.
func Tokenize(text string) TokenSet {
	set := make(TokenSet)
	if text == "" {
		return set
	}

	for _, tok := range strings.FieldsFunc(fold(text), isSeparator) {
		set[tok] = struct{}{}
	}
	return set
}

// fold composes text to NFC and case-folds it.
func fold(text string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Fold().String(norm.NFC.String(text))
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Intersects reports whether s and other share at least one token.
func (s TokenSet) Intersects(other TokenSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for tok := range small {
		if _, ok := large[tok]; ok {
			return true
		}
	}
	return false
}

// Contains reports whether tok is in the set.
func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
