package syllable

import "strings"

// correctionPair is one bidirectional spelling-fix substitution.
type correctionPair struct {
	a, b    string
	enabled func(o PinyinOptions) bool
}

var pinyinCorrections = []correctionPair{
	{"ue", "ve", func(o PinyinOptions) bool { return o.CorrectUeVe }},
	{"uen", "un", func(o PinyinOptions) bool { return o.CorrectUenUn }},
	{"gn", "ng", func(o PinyinOptions) bool { return o.CorrectGnNg }},
	{"mg", "ng", func(o PinyinOptions) bool { return o.CorrectMgNg }},
	{"iou", "iu", func(o PinyinOptions) bool { return o.CorrectIouIu }},
}

// PinyinOptions parameterizes the Pinyin parser's DP, sourced from
// pkg/config.ParserConfig at Engine construction time.
type PinyinOptions struct {
	AllowIncomplete        bool
	UseTone                bool
	ForceTone              bool
	CorrectUeVe            bool
	CorrectVU              bool
	CorrectUenUn           bool
	CorrectGnNg            bool
	CorrectMgNg            bool
	CorrectIouIu           bool
	CorrectionPenalty      float64
	FuzzyPenaltyMultiplier float64
	IncompletePenalty      float64
	UnknownPenalty         float64
}

// DefaultPinyinOptions mirrors pkg/config.DefaultConfig's parser defaults.
func DefaultPinyinOptions() PinyinOptions {
	return PinyinOptions{
		AllowIncomplete:        true,
		UseTone:                true,
		ForceTone:              false,
		CorrectUeVe:            true,
		CorrectVU:              true,
		CorrectUenUn:           true,
		CorrectGnNg:            true,
		CorrectMgNg:            true,
		CorrectIouIu:           true,
		CorrectionPenalty:      200,
		FuzzyPenaltyMultiplier: 1.0,
		IncompletePenalty:      500,
		UnknownPenalty:         1000,
	}
}

// PinyinParser segments Full-Pinyin keystroke strings into syllable tokens.
type PinyinParser struct {
	alphabet *Alphabet
	fuzzy    FuzzyExpander
	opts     PinyinOptions
}

const pinyinMaxSyllableLen = 7
const pinyinSeparator = '\''

// NewPinyinParser constructs a parser over alphabet, with fuzzy (may be nil)
// supplying fuzzy alternatives, under opts.
func NewPinyinParser(alphabet *Alphabet, fuzzy FuzzyExpander, opts PinyinOptions) *PinyinParser {
	return &PinyinParser{alphabet: alphabet, fuzzy: fuzzy, opts: opts}
}

// SegmentTopK implements Parser.
func (p *PinyinParser) SegmentTopK(input string, k int, allowFuzzy bool) []Segmentation {
	lowered := strings.ToLower(input)
	return segmentTopK(lowered, k, allowFuzzy, pinyinMaxSyllableLen, pinyinSeparator, p.parseOneKey, p.opts.UnknownPenalty)
}

// parseOneKey validates and scores one candidate substring as a syllable.
func (p *PinyinParser) parseOneKey(substr string, allowFuzzy bool) []match {
	var out []match

	body, tone, hasTone := extractTone(substr, p.opts.UseTone)
	if p.opts.ForceTone && p.opts.UseTone && !hasTone {
		return nil
	}

	if p.alphabet.Exact(body) {
		out = append(out, match{Token: Token{Text: body, Tone: tone}, Distance: 0})
	}

	for _, c := range pinyinCorrections {
		if !c.enabled(p.opts) {
			continue
		}
		if corrected, ok := applyCorrection(body, c.a, c.b); ok && p.alphabet.Exact(corrected) {
			out = append(out, match{
				Token:    Token{Text: corrected, Tone: tone, Fuzzy: true},
				Distance: p.opts.CorrectionPenalty,
			})
		}
	}

	if p.opts.CorrectVU {
		if corrected, ok := vuCorrection(body); ok && p.alphabet.Exact(corrected) {
			out = append(out, match{
				Token:    Token{Text: corrected, Tone: tone, Fuzzy: true},
				Distance: p.opts.CorrectionPenalty,
			})
		}
	}

	if allowFuzzy && p.fuzzy != nil {
		for _, alt := range p.fuzzy.Alternatives(body) {
			if alt.Text == body {
				continue // identity already covered by the exact-match branch
			}
			if p.alphabet.Exact(alt.Text) {
				out = append(out, match{
					Token:    Token{Text: alt.Text, Tone: tone, Fuzzy: true},
					Distance: alt.Penalty * p.opts.FuzzyPenaltyMultiplier,
				})
			}
		}
	}

	if allowFuzzy && p.opts.AllowIncomplete && len(out) == 0 {
		if completion, ok := p.alphabet.FirstCompletion(body); ok {
			out = append(out, match{
				Token:    Token{Text: completion, Tone: tone, Fuzzy: true},
				Distance: p.opts.IncompletePenalty,
			})
		}
	}

	return out
}

// extractTone strips a trailing tone digit 1..5 when useTone is enabled.
func extractTone(s string, useTone bool) (body string, tone int, found bool) {
	if !useTone || s == "" {
		return s, 0, false
	}
	last := s[len(s)-1]
	if last >= '1' && last <= '5' {
		return s[:len(s)-1], int(last - '0'), true
	}
	return s, 0, false
}

// applyCorrection tries substituting a->b and b->a once within s, returning
// the corrected string if it differs from s.
func applyCorrection(s, a, b string) (string, bool) {
	if strings.Contains(s, a) {
		c := strings.Replace(s, a, b, 1)
		if c != s {
			return c, true
		}
	}
	if strings.Contains(s, b) {
		c := strings.Replace(s, b, a, 1)
		if c != s {
			return c, true
		}
	}
	return "", false
}

// vuCorrection implements v<->u, restricted to immediately following n or l.
func vuCorrection(s string) (string, bool) {
	for _, pfx := range []string{"n", "l"} {
		if strings.HasPrefix(s, pfx+"v") {
			return pfx + "u" + s[len(pfx)+1:], true
		}
		if strings.HasPrefix(s, pfx+"u") {
			return pfx + "v" + s[len(pfx)+1:], true
		}
	}
	return "", false
}
