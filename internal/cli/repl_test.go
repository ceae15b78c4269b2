package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hanzi-ime/imecore/pkg/config"
	"github.com/hanzi-ime/imecore/pkg/engine"
	"github.com/hanzi-ime/imecore/pkg/interpolate"
	"github.com/hanzi-ime/imecore/pkg/lexicon"
	"github.com/hanzi-ime/imecore/pkg/model"
	"github.com/hanzi-ime/imecore/pkg/ngram"
	"github.com/hanzi-ime/imecore/pkg/syllable"
	"github.com/hanzi-ime/imecore/pkg/userdict"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	lex := lexicon.New()
	lex.Insert("ni'hao", "你好", 500, "")
	ngramModel := ngram.New(-18.0)
	ngramModel.SetUnigram("你", -3.0)
	ngramModel.SetUnigram("好", -3.0)
	ngramModel.SetBigram("你", "好", -1.0)
	interp := interpolate.New(interpolate.Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	m := &model.Model{Lexicon: lex, NGram: ngramModel, Interpolator: interp}

	alphabet := syllable.NewAlphabet([]string{"ni", "hao"})
	parser := syllable.NewPinyinParser(alphabet, nil, syllable.DefaultPinyinOptions())

	store, err := userdict.Open(filepath.Join(t.TempDir(), "user.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e, err := engine.New(m, parser, store, config.DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestREPLPrintsCandidates(t *testing.T) {
	var out bytes.Buffer
	r := &REPL{Engine: testEngine(t), In: strings.NewReader("nihao\n:q\n"), Out: &out}
	require.NoError(t, r.Run())
	require.Contains(t, out.String(), "你好")
}

func TestREPLStatsAndClear(t *testing.T) {
	var out bytes.Buffer
	r := &REPL{Engine: testEngine(t), In: strings.NewReader("nihao\n:stats\n:clear\n:q\n"), Out: &out}
	require.NoError(t, r.Run())
	require.Contains(t, out.String(), "hits=")
	require.Contains(t, out.String(), "cache cleared")
}

func TestREPLCommit(t *testing.T) {
	var out bytes.Buffer
	r := &REPL{Engine: testEngine(t), In: strings.NewReader(":commit 你好\n:q\n"), Out: &out}
	require.NoError(t, r.Run())
	require.Contains(t, out.String(), `committed "你好"`)
}
