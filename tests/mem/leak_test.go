//go:build test

// Package mem holds a heap-growth regression check for repeated Engine.Input
// calls, run only under the "test" build tag since it allocates a large
// number of cache entries and reads runtime memory stats.
package mem

import (
	"fmt"
	"path/filepath"
	"runtime"
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

func buildEngine(t *testing.T) *engine.Engine {
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

	cfg := config.DefaultConfig()
	cfg.Engine.CacheCapacity = 5000

	e, err := engine.New(m, parser, store, cfg)
	require.NoError(t, err)
	return e
}

// TestInputDoesNotLeakUnderCacheEviction drives the Engine far past its
// cache capacity and asserts that live heap usage stabilizes rather than
// growing unboundedly with call count.
func TestInputDoesNotLeakUnderCacheEviction(t *testing.T) {
	e := buildEngine(t)

	const warmupCalls = 20000
	const sampleCalls = 20000

	for i := 0; i < warmupCalls; i++ {
		e.Input(fmt.Sprintf("nihao%d", i))
	}
	runtime.GC()
	var before runtime.MemStats
	runtime.ReadMemStats(&before)

	for i := 0; i < sampleCalls; i++ {
		e.Input(fmt.Sprintf("nihao%d", warmupCalls+i))
	}
	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	_, _, size, capacity := e.CacheStats()
	require.Equal(t, int64(capacity), size)

	growth := int64(after.HeapAlloc) - int64(before.HeapAlloc)
	maxAllowedGrowth := int64(32 * 1024 * 1024) // generous bound; the cache is bounded by capacity, not call count
	require.Lessf(t, growth, maxAllowedGrowth,
		"heap grew by %d bytes after %d additional calls past a full %d-entry cache", growth, sampleCalls, capacity)
}
