package syllable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubFuzzy is a minimal FuzzyExpander for tests that need to exercise the
// per-syllable fuzzy-alternative branch without pulling in pkg/fuzzy.
type stubFuzzy struct{ rules map[string][]Alternative }

func (s stubFuzzy) Alternatives(syl string) []Alternative { return s.rules[syl] }

func testAlphabet() *Alphabet {
	return NewAlphabet([]string{
		"ni", "hao", "xi", "an", "xian", "zhong", "guo", "nve", "nu", "liu", "zi", "zhi", "a",
	})
}

func TestPinyinParserBasicSegmentation(t *testing.T) {
	p := NewPinyinParser(testAlphabet(), nil, DefaultPinyinOptions())
	segs := p.SegmentTopK("nihao", 5, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "ni'hao", segs[0].Key("'"))
}

func TestPinyinParserAmbiguousSegmentationTopK(t *testing.T) {
	p := NewPinyinParser(testAlphabet(), nil, DefaultPinyinOptions())
	segs := p.SegmentTopK("xian", 5, true)
	require.NotEmpty(t, segs)

	keys := make(map[string]bool)
	for _, s := range segs {
		keys[s.Key("'")] = true
	}
	require.True(t, keys["xian"] || keys["xi'an"], "expected at least one of the two valid segmentations, got %v", keys)
}

func TestPinyinParserSeparatorJoining(t *testing.T) {
	p := NewPinyinParser(testAlphabet(), nil, DefaultPinyinOptions())
	segs := p.SegmentTopK("zhong'guo", 3, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "zhong'guo", segs[0].Key("'"))
}

func TestPinyinParserVUCorrection(t *testing.T) {
	opts := DefaultPinyinOptions()
	p := NewPinyinParser(testAlphabet(), nil, opts)
	segs := p.SegmentTopK("nv", 3, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "nu", segs[0].Tokens[0].Text)
	require.True(t, segs[0].IsFuzzy())
}

func TestPinyinParserEmptyInput(t *testing.T) {
	p := NewPinyinParser(testAlphabet(), nil, DefaultPinyinOptions())
	segs := p.SegmentTopK("", 3, true)
	require.Len(t, segs, 1)
	require.Empty(t, segs[0].Tokens)
}

func TestPinyinParserFuzzyAlternative(t *testing.T) {
	stub := stubFuzzy{map[string][]Alternative{"zi": {{Text: "zhi", Penalty: 1.0}}}}
	p := NewPinyinParser(testAlphabet(), stub, DefaultPinyinOptions())
	segs := p.SegmentTopK("zi", 5, true)
	require.NotEmpty(t, segs)

	texts := map[string]bool{}
	for _, s := range segs {
		texts[s.Key("'")] = true
	}
	require.True(t, texts["zi"])
	require.True(t, texts["zhi"])
}

func TestParserWellFormedness(t *testing.T) {
	opts := DefaultPinyinOptions()
	opts.ForceTone = false
	p := NewPinyinParser(testAlphabet(), nil, opts)
	input := "nihao"
	segs := p.SegmentTopK(input, 5, true)
	require.NotEmpty(t, segs)
	for _, s := range segs {
		rebuilt := strings.Join(tokenTexts(s), "")
		require.LessOrEqual(t, len(rebuilt), len(input)+len(s.Tokens))
	}
}
