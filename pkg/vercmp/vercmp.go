// Package vercmp implements the Arch/pacman alpha-numeric version-ordering
// algorithm, re-implemented from scratch against its documented behaviour
// rather than ported from any existing implementation.
package vercmp

import "strings"

// Ordering mirrors the three-way result of a comparison.
type Ordering int

const (
	// Less means the left-hand side orders before the right-hand side.
	Less Ordering = -1
	// Equal means both sides are structurally equivalent for ordering purposes.
	Equal Ordering = 0
	// Greater means the left-hand side orders after the right-hand side.
	Greater Ordering = 1
)

func isAlnum(r byte) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r byte) bool {
	return r >= '0' && r <= '9'
}

type tokenKind int

const (
	tokenDigit tokenKind = iota
	tokenLetter
)

type token struct {
	kind tokenKind
	val  string
}

// tokenize splits a version string into an ordered sequence of maximal
// digit-runs and letter-runs, discarding any run of non-alphanumeric bytes
// that separates them. A byte sequence like "1.0a-2" yields the tokens
// digit("1"), digit("0"), letter("a"), digit("2").
func tokenize(s string) []token {
	var tokens []token

	i := 0
	for i < len(s) {
		c := s[i]

		switch {
		case !isAlnum(c):
			i++
		case isDigit(c):
			start := i
			for i < len(s) && isDigit(s[i]) {
				i++
			}

			tokens = append(tokens, token{kind: tokenDigit, val: s[start:i]})
		default:
			start := i
			for i < len(s) && isAlnum(s[i]) && !isDigit(s[i]) {
				i++
			}

			tokens = append(tokens, token{kind: tokenLetter, val: s[start:i]})
		}
	}

	return tokens
}

// compareDigits compares two digit runs numerically: leading zeros are
// stripped, the longer remaining string wins, and a tie falls back to a
// lexicographic comparison of the stripped digits.
func compareDigits(a, b string) Ordering {
	sa := strings.TrimLeft(a, "0")
	sb := strings.TrimLeft(b, "0")

	if len(sa) != len(sb) {
		if len(sa) < len(sb) {
			return Less
		}

		return Greater
	}

	switch {
	case sa < sb:
		return Less
	case sa > sb:
		return Greater
	default:
		return Equal
	}
}

func compareLetters(a, b string) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// Compare implements the alpha-numeric comparator over two raw version
// strings such as "1.0.1" or "2:1.0-1". It operates on a single string at a
// time; PlainVersion.Compare composes it over epoch/pkgver/pkgrel.
func Compare(a, b string) Ordering {
	ta := tokenize(a)
	tb := tokenize(b)

	for i := 0; ; i++ {
		aDone := i >= len(ta)
		bDone := i >= len(tb)

		switch {
		case aDone && bDone:
			return Equal
		case aDone:
			return Less
		case bDone:
			return Greater
		}

		at, bt := ta[i], tb[i]

		if at.kind != bt.kind {
			// A digit run outranks a letter run at the same position.
			if at.kind == tokenDigit {
				return Greater
			}

			return Less
		}

		var ord Ordering
		if at.kind == tokenDigit {
			ord = compareDigits(at.val, bt.val)
		} else {
			ord = compareLetters(at.val, bt.val)
		}

		if ord != Equal {
			return ord
		}
	}
}
