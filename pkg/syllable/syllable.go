// Package syllable implements the phonetic segmentation layer: parsing a raw
// keystroke string into syllable tokens under a language-specific alphabet,
// with corrections, fuzzy alternatives, and incomplete-syllable completion.
package syllable

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Token is an atomic phonetic unit produced by a Parser.
type Token struct {
	// Text is the canonical syllable spelling, e.g. "ni" or "ㄋㄧ".
	Text string
	// Tone is 0 (unspecified) or 1..5.
	Tone int
	// Fuzzy marks that this token was produced via a correction or fuzzy
	// rule rather than an exact alphabet match.
	Fuzzy bool
}

// Segmentation is an ordered token sequence spanning an input string,
// carrying the accumulated DP cost used to rank alternatives.
type Segmentation struct {
	Tokens []Token
	Cost   float64
}

// IsFuzzy reports whether any constituent token was produced via a
// correction or fuzzy rule.
func (s Segmentation) IsFuzzy() bool {
	for _, t := range s.Tokens {
		if t.Fuzzy {
			return true
		}
	}
	return false
}

// Key joins the segmentation's token texts with sep into a Lexicon lookup
// key, e.g. ["ni", "hao"] with sep "'" becomes "ni'hao".
func (s Segmentation) Key(sep string) string {
	texts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		texts[i] = t.Text
	}
	return strings.Join(texts, sep)
}

// Alternative is a phonetically-equivalent substitution for one syllable,
// carrying the penalty that substitution costs in the segmentation DP.
// Defined here (rather than in package fuzzy) so the Parser's DP can accept
// any FuzzyExpander without importing the fuzzy package.
type Alternative struct {
	Text    string
	Penalty float64
}

// FuzzyExpander supplies phonetic alternatives for a single syllable.
// package fuzzy's Map implements this.
type FuzzyExpander interface {
	Alternatives(syllable string) []Alternative
}

// Parser is the capability set the Engine consumes. Two concrete families
// satisfy it: Pinyin (including Double-Pinyin) and Zhuyin.
type Parser interface {
	// SegmentTopK returns up to k segmentations of input, fewest tokens
	// first, then ascending cost, then by token text.
	// allowFuzzy enables fuzzy-rule and incomplete-completion fallbacks.
	SegmentTopK(input string, k int, allowFuzzy bool) []Segmentation
}

// Alphabet is a trie of valid syllables for O(k) exact match and for
// finding the first completion of a prefix.
type Alphabet struct {
	trie *patricia.Trie
}

// NewAlphabet builds an Alphabet from syllables, one per entry.
func NewAlphabet(syllables []string) *Alphabet {
	t := patricia.NewTrie()
	for _, s := range syllables {
		if s == "" {
			continue
		}
		t.Insert(patricia.Prefix(s), true)
	}
	return &Alphabet{trie: t}
}

// LoadAlphabet reads one valid syllable per line from a UTF-8 text artifact.
func LoadAlphabet(r io.Reader) (*Alphabet, error) {
	var syllables []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		syllables = append(syllables, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewAlphabet(syllables), nil
}

// Exact reports whether s is exactly a valid syllable.
func (a *Alphabet) Exact(s string) bool {
	item := a.trie.Get(patricia.Prefix(s))
	return item != nil
}

// FirstCompletion walks the trie rooted at prefix and returns the
// lexicographically first complete syllable reachable from it, used for
// incomplete-syllable completion. ok is false if prefix matches nothing.
func (a *Alphabet) FirstCompletion(prefix string) (string, bool) {
	var completions []string
	_ = a.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		completions = append(completions, string(p))
		return nil
	})
	if len(completions) == 0 {
		return "", false
	}
	sort.Strings(completions)
	return completions[0], true
}
