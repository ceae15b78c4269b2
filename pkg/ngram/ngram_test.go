package ngram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScoreFallsBackToFloorForUnknownTrigram(t *testing.T) {
	m := New(-20.0)
	score := m.Score("a", "b", "c", Lambdas{Trigram: 0.1, Bigram: 0.3, Unigram: 0.6})
	require.Equal(t, -20.0, score)
}

func TestScorePrefersTrigramWhenPresent(t *testing.T) {
	m := New(-20.0)
	m.SetTrigram("你", "好", "吗", -1.0)
	m.SetBigram("好", "吗", -5.0)
	m.SetUnigram("吗", -8.0)

	score := m.Score("你", "好", "吗", Lambdas{Trigram: 0.7, Bigram: 0.2, Unigram: 0.1})
	require.Greater(t, score, -20.0)
	require.False(t, math.IsNaN(score))
}

func TestSerializationRoundTripPreservesScores(t *testing.T) {
	m := New(-18.0)
	m.SetUnigram("好", -2.0)
	m.SetBigram("你", "好", -1.5)
	m.SetTrigram("你", "好", "吗", -1.0)

	dir := t.TempDir()
	require.NoError(t, m.Save(dir, "test-corpus", "deleted-interpolation"))

	loaded, err := Load(dir)
	require.NoError(t, err)

	lambdas := Lambdas{Trigram: 0.6, Bigram: 0.3, Unigram: 0.1}
	require.InDelta(t, m.Score("你", "好", "吗", lambdas), loaded.Score("你", "好", "吗", lambdas), 1e-9)
	require.InDelta(t, m.Score("", "", "好", lambdas), loaded.Score("", "", "好", lambdas), 1e-9)
}

func TestPredictNextFiltersByMinFrequency(t *testing.T) {
	m := New(-20.0)
	m.SetBigram("好", "吗", -2.0)
	m.SetBigram("好", "的", -18.0)

	preds := m.PredictNext("好", PredictNextOptions{Count: 5, MinPredictionFreq: -15.0})
	found := map[string]bool{}
	for _, p := range preds {
		found[p.Phrase] = true
	}
	require.True(t, found["吗"])
	require.False(t, found["的"])
}

func TestTrainProducesFiniteScores(t *testing.T) {
	counts := Counts{
		Unigram: map[string]int{"你": 10, "好": 8, "吗": 3},
		Bigram:  map[[2]string]int{{"你", "好"}: 6, {"好", "吗"}: 2},
		Trigram: map[[3]string]int{{"你", "好", "吗"}: 2},
	}
	m := Train(counts, -20.0)
	score := m.Score("你", "好", "吗", Lambdas{Trigram: 0.6, Bigram: 0.3, Unigram: 0.1})
	require.False(t, math.IsInf(score, 0))
	require.False(t, math.IsNaN(score))
}
