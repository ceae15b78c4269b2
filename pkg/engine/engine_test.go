package engine

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hanzi-ime/imecore/pkg/config"
	"github.com/hanzi-ime/imecore/pkg/interpolate"
	"github.com/hanzi-ime/imecore/pkg/lexicon"
	"github.com/hanzi-ime/imecore/pkg/model"
	"github.com/hanzi-ime/imecore/pkg/ngram"
	"github.com/hanzi-ime/imecore/pkg/syllable"
	"github.com/hanzi-ime/imecore/pkg/userdict"
	"github.com/stretchr/testify/require"
)

func testParser(t *testing.T) syllable.Parser {
	t.Helper()
	alphabet := syllable.NewAlphabet([]string{"ni", "hao", "xi", "an", "xian", "zhong", "guo"})
	return syllable.NewPinyinParser(alphabet, nil, syllable.DefaultPinyinOptions())
}

func testModel(t *testing.T) *model.Model {
	t.Helper()
	lex := lexicon.New()
	lex.Insert("ni'hao", "你好", 500, "")
	lex.Insert("xian", "先", 200, "")
	lex.Insert("xi'an", "西安", 150, "")
	lex.Insert("zhong'guo", "中国", 800, "")

	ngramModel := ngram.New(-18.0)
	ngramModel.SetUnigram("你", -3.0)
	ngramModel.SetUnigram("好", -3.0)
	ngramModel.SetBigram("你", "好", -1.0)
	ngramModel.SetUnigram("先", -4.0)
	ngramModel.SetUnigram("西", -5.0)
	ngramModel.SetUnigram("安", -5.0)
	ngramModel.SetBigram("西", "安", -1.5)
	ngramModel.SetUnigram("中", -4.0)
	ngramModel.SetUnigram("国", -4.0)
	ngramModel.SetBigram("中", "国", -0.5)

	interp := interpolate.New(interpolate.Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})

	return &model.Model{Lexicon: lex, NGram: ngramModel, Interpolator: interp}
}

func testUserDict(t *testing.T) *userdict.Store {
	t.Helper()
	s, err := userdict.Open(filepath.Join(t.TempDir(), "user.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	e, err := New(testModel(t), testParser(t), testUserDict(t), cfg)
	require.NoError(t, err)
	return e
}

func TestInputBasicSegmentation(t *testing.T) {
	e := testEngine(t)
	candidates := e.Input("nihao")
	require.NotEmpty(t, candidates)
	require.Equal(t, "你好", candidates[0].Text)
}

func TestInputEmptyReturnsEmpty(t *testing.T) {
	e := testEngine(t)
	require.Empty(t, e.Input(""))
}

func TestInputAmbiguousSegmentationYieldsBothCandidates(t *testing.T) {
	e := testEngine(t)
	candidates := e.Input("xian")
	texts := map[string]bool{}
	for _, c := range candidates {
		texts[c.Text] = true
	}
	require.True(t, texts["先"] && texts["西安"])
}

func TestInputCachesResult(t *testing.T) {
	e := testEngine(t)
	first := e.Input("nihao")
	_, misses, _, _ := e.CacheStats()
	require.Equal(t, int64(1), misses)

	second := e.Input("nihao")
	hits, _, _, _ := e.CacheStats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, first, second)
}

func TestCommitInvalidatesCache(t *testing.T) {
	e := testEngine(t)
	e.Input("nihao")
	require.NoError(t, e.Commit("你好"))

	_, _, size, _ := e.CacheStats()
	require.Equal(t, int64(0), size)
}

func TestCommitRaisesUserFrequencyScore(t *testing.T) {
	e := testEngine(t)
	before := e.Input("nihao")
	var scoreBefore float64
	for _, c := range before {
		if c.Text == "你好" {
			scoreBefore = c.Score
		}
	}

	require.NoError(t, e.Commit("你好"))
	after := e.Input("nihao")
	var scoreAfter float64
	for _, c := range after {
		if c.Text == "你好" {
			scoreAfter = c.Score
		}
	}
	require.GreaterOrEqual(t, scoreAfter, scoreBefore)
}

func TestClearCacheResetsSize(t *testing.T) {
	e := testEngine(t)
	e.Input("nihao")
	e.ClearCache()
	_, _, size, _ := e.CacheStats()
	require.Equal(t, int64(0), size)
}

func TestInputRespectsMaxCandidates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.MaxCandidates = 1
	e, err := New(testModel(t), testParser(t), testUserDict(t), cfg)
	require.NoError(t, err)

	lex := e.model.Lexicon
	lex.Insert("zhong'guo", "祖国", 700, "")

	candidates := e.Input("zhongguo")
	require.LessOrEqual(t, len(candidates), 1)
}

func TestCacheEvictsUnderCapacity(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.CacheCapacity = 100
	e, err := New(testModel(t), testParser(t), testUserDict(t), cfg)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		e.Input(fmt.Sprintf("nihao%d", i))
	}
	_, _, size, capacity := e.CacheStats()
	require.Equal(t, int64(100), size)
	require.Equal(t, int64(100), capacity)
}
