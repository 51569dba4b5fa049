// Package normalize cleans contact fields taken from untrusted webhook payloads
// Pipeline order
// 1 Sanitize control characters and invalid UTF-8
// 2 Unicode NFKC normalization
// 3 Remove zero-width and format characters
// 4 Width fold fullwidth to ASCII
// 5 Collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxNameRunes bounds stored names
const MaxNameRunes = 190

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			runes.Remove(runes.In(unicode.Cf)), // strip ZWJ ZWNJ FEFF etc
			width.Fold,
		)
	},
}

var foldPool = sync.Pool{
	New: func() any { return cases.Fold() },
}

// Text returns the single-line normalized form of s
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = Sanitize(s)

	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	return collapseSpaces(ns)
}

// Name normalizes a display name and bounds its length
func Name(s string) string {
	s = Text(s)
	if utf8.RuneCountInString(s) <= MaxNameRunes {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxNameRunes]))
}

// JoinName builds a display name from first and last parts
func JoinName(first, last string) string {
	return Name(strings.TrimSpace(Text(first) + " " + Text(last)))
}

// Email normalizes an address for comparison and storage
// it does not validate the address
func Email(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, "<>\"'")

	c := foldPool.Get().(cases.Caser)
	out := c.String(s)
	foldPool.Put(c)
	return out
}

// collapseSpaces converts whitespace runs, newlines included, to a single
// ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
