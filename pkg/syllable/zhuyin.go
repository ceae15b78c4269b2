package syllable

// ZhuyinOptions parameterizes the Zhuyin (Bopomofo) parser's DP.
type ZhuyinOptions struct {
	Incomplete        bool
	CorrectShuffle    bool
	CorrectHSU        bool
	CorrectETEN26     bool
	CorrectionPenalty float64
	IncompletePenalty float64
	UnknownPenalty    float64
}

// DefaultZhuyinOptions mirrors pkg/config.DefaultConfig's Zhuyin defaults.
func DefaultZhuyinOptions() ZhuyinOptions {
	return ZhuyinOptions{
		Incomplete:        true,
		CorrectShuffle:    true,
		CorrectHSU:        true,
		CorrectETEN26:     true,
		CorrectionPenalty: 200,
		IncompletePenalty: 500,
		UnknownPenalty:    1000,
	}
}

// zhuyinCorrectionPair is one directed keyboard-confusion substitution,
// tried in both directions by applyCorrection (shared with pinyin.go).
type zhuyinCorrectionPair struct{ a, b string }

// zhuyinHSUCorrections covers the 許氏 (HSU) keyboard's initial-key overlap:
// the palatal row (ㄐㄑㄒ) and the retroflex row (ㄓㄔㄕ) share physical
// keys, so either can be typed for the other. Same direction as the
// zhuyin-hsu fuzzy preset.
var zhuyinHSUCorrections = []zhuyinCorrectionPair{
	{"ㄐ", "ㄓ"},
	{"ㄑ", "ㄔ"},
	{"ㄒ", "ㄕ"},
}

// zhuyinETen26Corrections covers 倚天26鍵 (ETen26) key overlaps: without the
// shift-for-tone modifier these initial/final pairs land on the same key.
var zhuyinETen26Corrections = []zhuyinCorrectionPair{
	{"ㄐ", "ㄍ"},
	{"ㄑ", "ㄎ"},
	{"ㄛ", "ㄠ"},
	{"ㄥ", "ㄤ"},
}

// zhuyinMedials and zhuyinFinals back zhuyinShuffleCorrection.
var zhuyinMedials = map[rune]bool{'ㄧ': true, 'ㄨ': true, 'ㄩ': true}
var zhuyinFinals = map[rune]bool{
	'ㄚ': true, 'ㄛ': true, 'ㄜ': true, 'ㄝ': true, 'ㄞ': true, 'ㄟ': true,
	'ㄠ': true, 'ㄡ': true, 'ㄢ': true, 'ㄣ': true, 'ㄤ': true, 'ㄥ': true, 'ㄦ': true,
}

// zhuyinShuffleCorrection swaps a trailing final+medial pair back into the
// canonical medial+final order, e.g. "ㄢㄧ" -> "ㄧㄢ": typing the final
// before the medial is a common compound-final transposition.
func zhuyinShuffleCorrection(body string) (string, bool) {
	runes := []rune(body)
	if len(runes) < 2 {
		return "", false
	}
	last, prev := runes[len(runes)-1], runes[len(runes)-2]
	if zhuyinMedials[last] && zhuyinFinals[prev] {
		runes[len(runes)-1], runes[len(runes)-2] = prev, last
		return string(runes), true
	}
	return "", false
}

// zhuyinToneSuffixes are the suffixed tone symbols (rather than digits).
var zhuyinToneSuffixes = []rune{'˙', 'ˊ', 'ˇ', 'ˋ'}

const zhuyinMaxSyllableLen = 4

// zhuyinSymbolBytes is the UTF-8 width of one Bopomofo symbol; tone marks
// are narrower, so a syllable of zhuyinMaxSyllableLen symbols never spans
// more than zhuyinMaxSyllableLen*zhuyinSymbolBytes bytes of input.
const zhuyinSymbolBytes = 3

// ZhuyinParser segments Bopomofo keystroke strings. Unlike Pinyin there is
// no apostrophe separator; tones are suffixed symbols. Its keyboard-layout
// correction families are baked into the package (zhuyinHSUCorrections,
// zhuyinETen26Corrections, zhuyinShuffleCorrection) rather than supplied by
// the caller, the same way pinyin.go bakes in pinyinCorrections.
type ZhuyinParser struct {
	alphabet *Alphabet
	fuzzy    FuzzyExpander
	opts     ZhuyinOptions
}

// NewZhuyinParser constructs a parser over alphabet, with fuzzy (may be nil)
// supplying fuzzy alternatives, under opts.
func NewZhuyinParser(alphabet *Alphabet, fuzzy FuzzyExpander, opts ZhuyinOptions) *ZhuyinParser {
	return &ZhuyinParser{alphabet: alphabet, fuzzy: fuzzy, opts: opts}
}

// SegmentTopK implements Parser.
func (p *ZhuyinParser) SegmentTopK(input string, k int, allowFuzzy bool) []Segmentation {
	return segmentTopK(input, k, allowFuzzy, zhuyinMaxSyllableLen*zhuyinSymbolBytes, 0, p.parseOneKey, p.opts.UnknownPenalty)
}

func (p *ZhuyinParser) parseOneKey(substr string, allowFuzzy bool) []match {
	var out []match

	body, tone := stripZhuyinTone(substr)

	if p.alphabet.Exact(body) {
		out = append(out, match{Token: Token{Text: body, Tone: tone}, Distance: 0})
	}

	if p.opts.CorrectShuffle {
		if corrected, ok := zhuyinShuffleCorrection(body); ok && p.alphabet.Exact(corrected) {
			out = append(out, match{
				Token:    Token{Text: corrected, Tone: tone, Fuzzy: true},
				Distance: p.opts.CorrectionPenalty,
			})
		}
	}

	tryCorrections := func(pairs []zhuyinCorrectionPair, enabled bool) {
		if !enabled {
			return
		}
		for _, c := range pairs {
			if corrected, ok := applyCorrection(body, c.a, c.b); ok && p.alphabet.Exact(corrected) {
				out = append(out, match{
					Token:    Token{Text: corrected, Tone: tone, Fuzzy: true},
					Distance: p.opts.CorrectionPenalty,
				})
			}
		}
	}
	tryCorrections(zhuyinHSUCorrections, p.opts.CorrectHSU)
	tryCorrections(zhuyinETen26Corrections, p.opts.CorrectETEN26)

	if allowFuzzy && p.fuzzy != nil {
		for _, alt := range p.fuzzy.Alternatives(body) {
			if alt.Text == body {
				continue
			}
			if p.alphabet.Exact(alt.Text) {
				out = append(out, match{
					Token:    Token{Text: alt.Text, Tone: tone, Fuzzy: true},
					Distance: alt.Penalty,
				})
			}
		}
	}

	if allowFuzzy && p.opts.Incomplete && len(out) == 0 {
		if completion, ok := p.alphabet.FirstCompletion(body); ok {
			out = append(out, match{
				Token:    Token{Text: completion, Tone: tone, Fuzzy: true},
				Distance: p.opts.IncompletePenalty,
			})
		}
	}

	return out
}

func stripZhuyinTone(s string) (body string, tone int) {
	runes := []rune(s)
	if len(runes) == 0 {
		return s, 0
	}
	last := runes[len(runes)-1]
	for i, suf := range zhuyinToneSuffixes {
		if last == suf {
			return string(runes[:len(runes)-1]), i + 2 // map suffix set to tones 2..5
		}
	}
	return s, 1 // unmarked Zhuyin syllables are conventionally first tone
}
