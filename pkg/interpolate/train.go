package interpolate

import "github.com/hanzi-ime/imecore/pkg/ngram"

// PrefixCounts is the slice of a training corpus's n-gram counts relevant
// to one prefix context, used to estimate that prefix's own Record via the
// same deleted-interpolation method the N-gram Model's global weights use
// (danieldk-citar/trigrams/linear_interpolation.go's calculateLambdas),
// applied per-prefix instead of corpus-wide — the empirical justification
// given for keeping the Interpolator a distinct component.
type PrefixCounts struct {
	Trigram ngram.Counts
	UserBoostObserved float64 // fraction of trigrams in this prefix resolved via user-learned phrases
}

// EstimateRecord derives a Record for one prefix from its local counts,
// reserving UserBoost share from the other three proportionally so the
// four weights still sum to 1.0.
func EstimateRecord(counts PrefixCounts) Record {
	corpusSize := 0
	for _, f := range counts.Trigram.Unigram {
		corpusSize += f
	}
	if corpusSize == 0 {
		remaining := 1.0 - counts.UserBoostObserved
		return Record{Trigram: 0.1 * remaining, Bigram: 0.3 * remaining, Unigram: 0.6 * remaining, UserBoost: counts.UserBoostObserved}
	}

	var l1f, l2f, l3f int
	for tg, tgFreq := range counts.Trigram.Trigram {
		t1t2 := [2]string{tg[0], tg[1]}
		var l3p float64
		if f, ok := counts.Trigram.Bigram[t1t2]; ok && f > 1 {
			l3p = float64(tgFreq-1) / float64(f-1)
		}
		t2t3 := [2]string{tg[1], tg[2]}
		var l2p float64
		if f, ok := counts.Trigram.Bigram[t2t3]; ok {
			if t2f, ok := counts.Trigram.Unigram[tg[1]]; ok && t2f > 1 {
				l2p = float64(f-1) / float64(t2f-1)
			}
		}
		var l1p float64
		if f, ok := counts.Trigram.Unigram[tg[2]]; ok && corpusSize > 1 {
			l1p = float64(f-1) / float64(corpusSize-1)
		}
		switch {
		case l1p > l2p && l1p > l3p:
			l1f += tgFreq
		case l2p > l1p && l2p > l3p:
			l2f += tgFreq
		default:
			l3f += tgFreq
		}
	}

	total := l1f + l2f + l3f
	userBoost := counts.UserBoostObserved
	remaining := 1.0 - userBoost
	if total == 0 {
		return Record{Trigram: 0.1 * remaining, Bigram: 0.3 * remaining, Unigram: 0.6 * remaining, UserBoost: userBoost}
	}
	return Record{
		Trigram:   remaining * float64(l3f) / float64(total),
		Bigram:    remaining * float64(l2f) / float64(total),
		Unigram:   remaining * float64(l1f) / float64(total),
		UserBoost: userBoost,
	}
}
