// Package fuzzy implements the Fuzzy Map: a parsed rule set yielding
// phonetically-equivalent syllable alternatives with penalties, and the
// bounded combinatorial expansion of a syllable sequence into alternative
// key sequences.
package fuzzy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/hanzi-ime/imecore/pkg/syllable"
	"gopkg.in/yaml.v3"
)

// Rule is a directed (from, to, penalty) substitution. The rule set is
// closed under neither symmetry nor transitivity; each direction must be
// stated explicitly.
type Rule struct {
	From    string
	To      string
	Penalty float64
}

// Map is the parsed, queryable Fuzzy Map.
type Map struct {
	// byFrom indexes rules by their From syllable for O(1) lookup.
	byFrom        map[string][]Rule
	defaultPenalty float64
}

// DefaultPenalty is used for "from=to" entries that omit ":penalty".
const DefaultPenalty = 1.0

// NewMap builds a Map from already-parsed rules.
func NewMap(rules []Rule, defaultPenalty float64) *Map {
	m := &Map{byFrom: make(map[string][]Rule), defaultPenalty: defaultPenalty}
	for _, r := range rules {
		m.byFrom[r.From] = append(m.byFrom[r.From], r)
	}
	return m
}

// ParseRules parses the textual "from=to:penalty" rule format,
// e.g. "zh=z:1.0", "c=ch:1.5". ":penalty" is optional and
// defaults to defaultPenalty.
func ParseRules(lines []string, defaultPenalty float64) ([]Rule, error) {
	var rules []Rule
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return nil, imeerr.Fuzzy("ParseRules", fmt.Errorf("malformed rule %q: missing '='", line))
		}
		from := line[:eq]
		rest := line[eq+1:]
		to := rest
		penalty := defaultPenalty
		if colon := strings.IndexByte(rest, ':'); colon >= 0 {
			to = rest[:colon]
			p, err := strconv.ParseFloat(rest[colon+1:], 64)
			if err != nil {
				return nil, imeerr.Fuzzy("ParseRules", fmt.Errorf("malformed penalty in rule %q: %w", line, err))
			}
			penalty = p
		}
		if from == "" || to == "" {
			return nil, imeerr.Fuzzy("ParseRules", fmt.Errorf("malformed rule %q: empty syllable", line))
		}
		if penalty < 0 {
			return nil, imeerr.Fuzzy("ParseRules", fmt.Errorf("rule %q has a negative penalty", line))
		}
		rules = append(rules, Rule{From: from, To: to, Penalty: penalty})
	}
	return rules, nil
}

// preset is the on-disk shape of a bundled YAML rule-set preset.
type preset struct {
	DefaultPenalty float64 `yaml:"default_penalty"`
	Rules          []struct {
		From    string  `yaml:"from"`
		To      string  `yaml:"to"`
		Penalty float64 `yaml:"penalty"`
	} `yaml:"rules"`
}

// ParsePresetYAML parses a bundled rule-set preset (e.g. "pinyin-loose",
// "zhuyin-hsu") from YAML, a convenience format that expands to the same
// []Rule the textual parser produces.
func ParsePresetYAML(data []byte) ([]Rule, error) {
	var p preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, imeerr.Fuzzy("ParsePresetYAML", err)
	}
	rules := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		penalty := r.Penalty
		if penalty == 0 {
			penalty = p.DefaultPenalty
		}
		rules = append(rules, Rule{From: r.From, To: r.To, Penalty: penalty})
	}
	return rules, nil
}

// Alternatives returns the alternatives for syllable s, always starting
// with the identity (s, 0.0) so the unmodified syllable is never dropped.
func (m *Map) Alternatives(s string) []syllable.Alternative {
	out := []syllable.Alternative{{Text: s, Penalty: 0}}
	for _, r := range m.byFrom[s] {
		out = append(out, syllable.Alternative{Text: r.To, Penalty: r.Penalty})
	}
	return out
}

// Sequence is one expanded alternative: the substituted token texts and
// the accumulated penalty of reaching it.
type Sequence struct {
	Tokens   []string
	Penalty  float64
}

// ExpandSequence enumerates alternative key sequences for tokens, bounded
// to maxExpansions. Emission order is stable: the unmodified
// sequence first, then alternatives in Alternatives() order, ties broken
// lexicographically by the alternative sequence.
func (m *Map) ExpandSequence(tokens []string, maxExpansions int) []Sequence {
	if maxExpansions <= 0 {
		maxExpansions = 1
	}
	perToken := make([][]syllable.Alternative, len(tokens))
	for i, t := range tokens {
		perToken[i] = m.Alternatives(t)
	}

	var out []Sequence
	var recurse func(idx int, cur []string, penalty float64) bool // returns false once capped
	recurse = func(idx int, cur []string, penalty float64) bool {
		if len(out) >= maxExpansions {
			return false
		}
		if idx == len(perToken) {
			seq := make([]string, len(cur))
			copy(seq, cur)
			out = append(out, Sequence{Tokens: seq, Penalty: penalty})
			return len(out) < maxExpansions
		}
		for _, alt := range perToken[idx] {
			cur = append(cur, alt.Text)
			cont := recurse(idx+1, cur, penalty+alt.Penalty)
			cur = cur[:len(cur)-1]
			if !cont {
				return false
			}
		}
		return true
	}
	recurse(0, make([]string, 0, len(tokens)), 0)

	if len(out) > maxExpansions {
		out = out[:maxExpansions]
	}
	return out
}
