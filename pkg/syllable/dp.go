package syllable

import (
	"sort"
	"strings"
)

// match is a single successful parse of a substring: the resulting token
// and the distance penalty it cost.
type match struct {
	Token    Token
	Distance float64
}

// matchFunc tries to parse substr as one syllable, returning every
// admissible match (exact, corrected, fuzzy, incomplete) in the priority
// order the DP should prefer when distances tie.
type matchFunc func(substr string, allowFuzzy bool) []match

// node is one DP state: the best (or one of the top-k) ways to reach a
// given input position.
type node struct {
	parsedLen int
	numKeys   int
	distance  float64
	pred      *node
	tok       Token
	hasTok    bool // false for the separator-propagation transition
}

// better reports whether a ranks ahead of b under the deterministic
// tie-break order: larger parsedLen, then smaller numKeys, then smaller
// distance.
func better(a, b *node) bool {
	if a.parsedLen != b.parsedLen {
		return a.parsedLen > b.parsedLen
	}
	if a.numKeys != b.numKeys {
		return a.numKeys < b.numKeys
	}
	return a.distance < b.distance
}

// insertState inserts n into states[pos], keeping at most beam entries
// ordered by better(), so ties all survive until the beam is actually full.
func insertState(states map[int][]*node, pos int, n *node, beam int) {
	list := states[pos]
	list = append(list, n)
	sort.SliceStable(list, func(i, j int) bool { return better(list[i], list[j]) })
	if len(list) > beam {
		list = list[:beam]
	}
	states[pos] = list
}

// segmentTopK runs the shared DP skeleton over
// input, using match to parse individual syllables and sepByte (0 if the
// family has no explicit separator) to recognize the separator character.
func segmentTopK(input string, k int, allowFuzzy bool, maxLen int, sepByte byte, match matchFunc, unknownPenalty float64) []Segmentation {
	n := len(input)
	if k <= 0 {
		k = 1
	}
	beam := k * 4
	if beam < 8 {
		beam = 8
	}

	states := map[int][]*node{0: {{parsedLen: 0, numKeys: 0, distance: 0}}}

	for m := 0; m < n; m++ {
		cur := states[m]
		if len(cur) == 0 {
			continue
		}
		if sepByte != 0 && input[m] == sepByte {
			for _, st := range cur {
				insertState(states, m+1, &node{
					parsedLen: st.parsedLen + 1,
					numKeys:   st.numKeys,
					distance:  st.distance,
					pred:      st,
					hasTok:    false,
				}, beam)
			}
			continue
		}
		maxE := m + maxLen
		if maxE > n {
			maxE = n
		}
		for e := m + 1; e <= maxE; e++ {
			matches := match(input[m:e], allowFuzzy)
			for _, mc := range matches {
				for _, st := range cur {
					insertState(states, e, &node{
						parsedLen: st.parsedLen + (e - m),
						numKeys:   st.numKeys + 1,
						distance:  st.distance + mc.Distance,
						pred:      st,
						tok:       mc.Token,
						hasTok:    true,
					}, beam)
				}
			}
		}
	}

	for i := n; i >= 0; i-- {
		var finishers []*node
		for _, st := range states[i] {
			if st.parsedLen == i {
				finishers = append(finishers, st)
			}
		}
		if len(finishers) == 0 {
			continue
		}
		segs := make([]Segmentation, 0, len(finishers))
		for _, f := range finishers {
			segs = append(segs, buildSegmentation(f, input, i, n, unknownPenalty))
		}
		sort.SliceStable(segs, func(a, b int) bool {
			return lessSegmentation(segs[a], segs[b])
		})
		segs = dedupSegmentations(segs)
		if len(segs) > k {
			segs = segs[:k]
		}
		return segs
	}
	return nil
}

func buildSegmentation(f *node, input string, coveredTo, n int, unknownPenalty float64) Segmentation {
	var tokens []Token
	for cn := f; cn != nil && cn.pred != nil; cn = cn.pred {
		if cn.hasTok {
			tokens = append([]Token{cn.tok}, tokens...)
		}
	}
	cost := f.distance
	if coveredTo < n {
		tail := input[coveredTo:n]
		tokens = append(tokens, Token{Text: tail})
		cost += unknownPenalty
	}
	return Segmentation{Tokens: tokens, Cost: cost}
}

func lessSegmentation(a, b Segmentation) bool {
	// Mirror the DP's own tie-break. Every segmentation compared here comes
	// from finishers at the same input position, so their parsed lengths
	// are equal and the comparison starts at the token count.
	if len(a.Tokens) != len(b.Tokens) {
		return len(a.Tokens) < len(b.Tokens)
	}
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return strings.Join(tokenTexts(a), "") < strings.Join(tokenTexts(b), "")
}

func segSpanLen(s Segmentation) int {
	total := 0
	for _, t := range s.Tokens {
		total += len(t.Text)
	}
	return total
}

func tokenTexts(s Segmentation) []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Text
	}
	return out
}

func dedupSegmentations(segs []Segmentation) []Segmentation {
	seen := make(map[string]bool, len(segs))
	out := segs[:0]
	for _, s := range segs {
		key := strings.Join(tokenTexts(s), "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
