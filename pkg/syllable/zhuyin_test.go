package syllable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testZhuyinAlphabet() *Alphabet {
	return NewAlphabet([]string{
		"ㄋㄧ", "ㄏㄠ", "ㄓㄨㄥ", "ㄍㄨㄛ", "ㄓㄨ", "ㄍㄨ", "ㄧㄢ",
	})
}

func TestZhuyinParserBasicSegmentation(t *testing.T) {
	p := NewZhuyinParser(testZhuyinAlphabet(), nil, DefaultZhuyinOptions())
	segs := p.SegmentTopK("ㄋㄧㄏㄠ", 5, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "ㄋㄧㄏㄠ", segs[0].Key(""))
}

func TestZhuyinParserHSUCorrection(t *testing.T) {
	opts := DefaultZhuyinOptions()
	opts.CorrectETEN26 = false // isolate the HSU rule; ㄐ is also an ETen26 key
	p := NewZhuyinParser(testZhuyinAlphabet(), nil, opts)
	segs := p.SegmentTopK("ㄐㄨ", 3, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "ㄓㄨ", segs[0].Tokens[0].Text)
	require.True(t, segs[0].IsFuzzy())
}

func TestZhuyinParserETen26Correction(t *testing.T) {
	p := NewZhuyinParser(testZhuyinAlphabet(), nil, DefaultZhuyinOptions())
	segs := p.SegmentTopK("ㄏㄛ", 3, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "ㄏㄠ", segs[0].Tokens[0].Text)
	require.True(t, segs[0].IsFuzzy())
}

func TestZhuyinParserShuffleCorrection(t *testing.T) {
	p := NewZhuyinParser(testZhuyinAlphabet(), nil, DefaultZhuyinOptions())
	segs := p.SegmentTopK("ㄢㄧ", 3, true)
	require.NotEmpty(t, segs)
	require.Equal(t, "ㄧㄢ", segs[0].Tokens[0].Text)
	require.True(t, segs[0].IsFuzzy())
}

func TestZhuyinParserCorrectionsDisabled(t *testing.T) {
	opts := DefaultZhuyinOptions()
	opts.CorrectHSU = false
	opts.CorrectETEN26 = false
	opts.CorrectShuffle = false
	p := NewZhuyinParser(testZhuyinAlphabet(), nil, opts)
	segs := p.SegmentTopK("ㄐㄨ", 3, false)
	for _, s := range segs {
		require.False(t, s.IsFuzzy())
	}
}

func TestZhuyinParserFuzzyAlternative(t *testing.T) {
	stub := stubFuzzy{map[string][]Alternative{"ㄏㄠ": {{Text: "ㄍㄨㄛ", Penalty: 1.5}}}}
	p := NewZhuyinParser(testZhuyinAlphabet(), stub, DefaultZhuyinOptions())
	segs := p.SegmentTopK("ㄏㄠ", 5, true)

	texts := map[string]bool{}
	for _, s := range segs {
		texts[s.Key("")] = true
	}
	require.True(t, texts["ㄏㄠ"])
	require.True(t, texts["ㄍㄨㄛ"])
}
