package ngram

import "math"

// Counts is the raw frequency data Train consumes: counts per n-gram order
// over a training corpus, keyed the same way Score's arguments are.
type Counts struct {
	Unigram map[string]int
	Bigram  map[[2]string]int
	Trigram map[[3]string]int
}

// deletedInterpolationLambdas holds the three held-out-likelihood weights
// estimated by Train, mirroring danieldk-citar's smoothingParameters.
type deletedInterpolationLambdas struct {
	L1, L2, L3 float64
}

// Train estimates global smoothing weights via the deleted-interpolation
// method (Brants, 2000) and populates m's tables from counts. This is
// offline build tooling, not required at query time (the Interpolator
// supplies query-time, per-prefix weights instead).
func Train(counts Counts, floorLogProb float64) *Model {
	corpusSize := 0
	for _, f := range counts.Unigram {
		corpusSize += f
	}

	lambdas := calculateLambdas(corpusSize, counts)

	m := New(floorLogProb)
	for w, freq := range counts.Unigram {
		p := float64(freq) / float64(corpusSize)
		m.SetUnigram(w, math.Log(lambdas.L1*p))
	}
	for bg, freq := range counts.Bigram {
		unigramProb := float64(counts.Unigram[bg[1]]) / float64(corpusSize)
		t1Freq := counts.Unigram[bg[0]]
		bigramProb := 0.0
		if t1Freq > 0 {
			bigramProb = float64(freq) / float64(t1Freq)
		}
		m.SetBigram(bg[0], bg[1], math.Log(lambdas.L1*unigramProb+lambdas.L2*bigramProb))
	}
	for tg, freq := range counts.Trigram {
		unigramProb := float64(counts.Unigram[tg[2]]) / float64(corpusSize)
		t2t3 := [2]string{tg[1], tg[2]}
		t2Freq := counts.Unigram[tg[1]]
		bigramProb := 0.0
		if t2Freq > 0 {
			bigramProb = float64(counts.Bigram[t2t3]) / float64(t2Freq)
		}
		t1t2 := [2]string{tg[0], tg[1]}
		t1t2Freq := counts.Bigram[t1t2]
		trigramProb := 0.0
		if t1t2Freq > 0 {
			trigramProb = float64(freq) / float64(t1t2Freq)
		}
		prob := lambdas.L1*unigramProb + lambdas.L2*bigramProb + lambdas.L3*trigramProb
		if prob <= 0 {
			m.SetTrigram(tg[0], tg[1], tg[2], floorLogProb)
			continue
		}
		m.SetTrigram(tg[0], tg[1], tg[2], math.Log(prob))
	}
	return m
}

// calculateLambdas implements the leave-one-out held-out estimate from
// danieldk-citar/trigrams/linear_interpolation.go, adapted from POS-tag
// trigrams to arbitrary string n-grams.
func calculateLambdas(corpusSize int, counts Counts) deletedInterpolationLambdas {
	var l1f, l2f, l3f int

	for tg, tgFreq := range counts.Trigram {
		t1t2 := [2]string{tg[0], tg[1]}
		var l3p float64
		if t1t2Freq, ok := counts.Bigram[t1t2]; ok && t1t2Freq > 1 {
			l3p = float64(tgFreq-1) / float64(t1t2Freq-1)
		}

		t2t3 := [2]string{tg[1], tg[2]}
		var l2p float64
		if t2t3Freq, ok := counts.Bigram[t2t3]; ok {
			if t2Freq, ok := counts.Unigram[tg[1]]; ok && t2Freq > 1 {
				l2p = float64(t2t3Freq-1) / float64(t2Freq-1)
			}
		}

		var l1p float64
		if t3Freq, ok := counts.Unigram[tg[2]]; ok && corpusSize > 1 {
			l1p = float64(t3Freq-1) / float64(corpusSize-1)
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
	if total == 0 {
		return deletedInterpolationLambdas{L1: 0.6, L2: 0.3, L3: 0.1}
	}
	return deletedInterpolationLambdas{
		L1: float64(l1f) / float64(total),
		L2: float64(l2f) / float64(total),
		L3: float64(l3f) / float64(total),
	}
}
