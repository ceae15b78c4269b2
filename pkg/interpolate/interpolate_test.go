package interpolate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestRecordValidWithinEpsilon(t *testing.T) {
	require.True(t, Record{Trigram: 0.7, Bigram: 0.2, Unigram: 0.1}.Valid())
	require.True(t, Record{Trigram: 0.7, Bigram: 0.2, Unigram: 0.1 + 5e-7}.Valid())
	require.False(t, Record{Trigram: 0.7, Bigram: 0.2, Unigram: 0.2}.Valid())
	require.False(t, Record{Trigram: -0.1, Bigram: 0.9, Unigram: 0.2}.Valid())
}

func TestLambdasForMissReturnsDefaults(t *testing.T) {
	ip := New(Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	lambdas := ip.LambdasFor("不存在")
	require.Equal(t, 0.1, lambdas.Trigram)
	require.Equal(t, 0.3, lambdas.Bigram)
	require.Equal(t, 0.6, lambdas.Unigram)
	require.Equal(t, 0.0, ip.UserBoostFor("不存在"))
}

func TestLambdasForHitUsesLearnedWeights(t *testing.T) {
	ip := New(Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	ip.Insert("你好", Record{Trigram: 0.5, Bigram: 0.3, Unigram: 0.1, UserBoost: 0.1})

	lambdas := ip.LambdasFor("你好")
	require.Equal(t, 0.5, lambdas.Trigram)
	require.Equal(t, 0.1, ip.UserBoostFor("你好"))
	require.Equal(t, 1, ip.Len())
}

func TestInsertPanicsOnInvalidRecord(t *testing.T) {
	ip := New(Defaults{})
	require.Panics(t, func() {
		ip.Insert("x", Record{Trigram: 0.5, Bigram: 0.5, Unigram: 0.5})
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ip := New(Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	ip.Insert("你", Record{Trigram: 0.6, Bigram: 0.3, Unigram: 0.1})
	ip.Insert("你好", Record{Trigram: 0.4, Bigram: 0.4, Unigram: 0.2})

	dir := t.TempDir()
	require.NoError(t, ip.Save(dir))

	loaded, err := Load(dir, Defaults{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	require.Equal(t, ip.LambdasFor("你好"), loaded.LambdasFor("你好"))
}

func TestLoadRejectsMalformedRecord(t *testing.T) {
	dir := t.TempDir()
	bad := []diskRecord{{Prefix: "坏", Record: Record{Trigram: 0.9, Bigram: 0.9, Unigram: 0.9}}}
	blob, err := msgpack.Marshal(bad)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, interpolatorBlobFile), blob, 0644))

	_, err = Load(dir, Defaults{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not sum to 1.0")
}
