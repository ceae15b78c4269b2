// Package ngram implements the N-gram Model: log-probability tables for
// Chinese-character uni/bi/trigrams, combined at query time with per-prefix
// interpolation weights via a numerically stable log-sum-exp.
//
// The combination algorithm is adapted from the deleted-interpolation
// method (Brants, 2000) as implemented for POS-tag trigrams in
// danieldk-citar/trigrams/linear_interpolation.go, generalized to Chinese
// character n-grams and fixed to (a) never panic on an unseen trigram,
// returning a floor log-probability instead, and (b) combine the smoothed
// per-order estimates with log-sum-exp rather than a plain weighted sum in
// linear space.
package ngram

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hanzi-ime/imecore/internal/utils"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/vmihailenco/msgpack/v5"
)

// Lambdas is one set of interpolation weights, as returned by the
// Interpolator for a given prefix (or Config defaults).
type Lambdas struct {
	Trigram float64
	Bigram  float64
	Unigram float64
}

// Model holds the three log-probability tables. All probabilities are in
// natural-log space; an absent entry contributes FloorLogProb.
type Model struct {
	FloorLogProb float64

	unigram map[string]float64
	bigram  map[[2]string]float64
	trigram map[[3]string]float64

	meta Metadata
}

// Metadata accompanies the serialized table set.
type Metadata struct {
	Version        string    `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	Corpus         string    `json:"corpus"`
	UnigramCount   int       `json:"unigram_count"`
	BigramCount    int       `json:"bigram_count"`
	TrigramCount   int       `json:"trigram_count"`
	SmoothingMethod string   `json:"smoothing_method"`
}

// New returns an empty Model, used by build tooling and by Train.
func New(floorLogProb float64) *Model {
	return &Model{
		FloorLogProb: floorLogProb,
		unigram:      make(map[string]float64),
		bigram:       make(map[[2]string]float64),
		trigram:      make(map[[3]string]float64),
	}
}

// logSumExp combines logged terms with weights using the max-shift trick:
// ln(sum(weight_i * exp(term_i))) computed without underflow.
func logSumExp(weights, terms []float64) float64 {
	maxTerm := math.Inf(-1)
	for _, t := range terms {
		if t > maxTerm {
			maxTerm = t
		}
	}
	if math.IsInf(maxTerm, -1) {
		return maxTerm
	}
	sum := 0.0
	for i, t := range terms {
		if weights[i] <= 0 {
			continue
		}
		sum += weights[i] * math.Exp(t-maxTerm)
	}
	if sum <= 0 {
		return maxTerm
	}
	return maxTerm + math.Log(sum)
}

// Score computes score(w1, w2, w3) -> log-prob,
// where w1/w2 may be empty to denote unigram/bigram context.
func (m *Model) Score(w1, w2, w3 string, lambdas Lambdas) float64 {
	l3 := m.FloorLogProb
	if p, ok := m.trigram[[3]string{w1, w2, w3}]; ok {
		l3 = p
	}
	l2 := m.FloorLogProb
	if p, ok := m.bigram[[2]string{w2, w3}]; ok {
		l2 = p
	}
	l1 := m.FloorLogProb
	if p, ok := m.unigram[w3]; ok {
		l1 = p
	}

	if l3 == m.FloorLogProb && l2 == m.FloorLogProb && l1 == m.FloorLogProb {
		return m.FloorLogProb
	}

	return logSumExp(
		[]float64{lambdas.Trigram, lambdas.Bigram, lambdas.Unigram},
		[]float64{l3, l2, l1},
	)
}

// ScoreSequence accumulates per-position trigram scores left to right, with
// (empty, empty, t0) for position 0 and (empty, t0, t1) for position 1,
// falling back to FloorLogProb wherever a context is unseen.
func (m *Model) ScoreSequence(tokens []string, lambdasFor func(prefix string) Lambdas) float64 {
	total := 0.0
	for i, t := range tokens {
		var w1, w2 string
		switch {
		case i == 0:
			w1, w2 = "", ""
		case i == 1:
			w1, w2 = "", tokens[0]
		default:
			w1, w2 = tokens[i-2], tokens[i-1]
		}
		prefix := w1 + w2
		total += m.Score(w1, w2, t, lambdasFor(prefix))
	}
	return total
}

// Prediction is one candidate from PredictNext.
type Prediction struct {
	Phrase string
	Score  float64
}

// PredictNextOptions configures PredictNext.
type PredictNextOptions struct {
	Count                int
	MinPredictionFreq    float64 // log-space floor filter, default -15.0
	MaxPhraseLength      int     // 1..3 characters, default 1
	PreferTwoCharLength   bool
}

// PredictNext retrieves candidates from the trigram (context, w, *) and
// bigram (last-char, *) tables, merges by max score, filters by
// MinPredictionFreq, optionally chains bigrams into 2-3 character phrases,
// and returns the top Count sorted descending.
func (m *Model) PredictNext(context string, opts PredictNextOptions) []Prediction {
	if context == "" {
		return nil
	}
	runes := []rune(context)
	last := string(runes[len(runes)-1])
	var secondLast string
	if len(runes) >= 2 {
		secondLast = string(runes[len(runes)-2])
	}

	best := make(map[string]float64)
	for trigram, score := range m.trigram {
		if trigram[0] == secondLast && trigram[1] == last {
			if cur, ok := best[trigram[2]]; !ok || score > cur {
				best[trigram[2]] = score
			}
		}
	}
	for bigram, score := range m.bigram {
		if bigram[0] == last {
			if cur, ok := best[bigram[1]]; !ok || score > cur {
				best[bigram[1]] = score
			}
		}
	}

	maxLen := opts.MaxPhraseLength
	if maxLen <= 0 {
		maxLen = 1
	}
	if maxLen > 1 {
		best = m.chainPhrases(best, maxLen)
	}

	floor := opts.MinPredictionFreq
	if floor == 0 {
		floor = -15.0
	}
	preds := make([]Prediction, 0, len(best))
	for phrase, score := range best {
		if score < floor {
			continue
		}
		preds = append(preds, Prediction{Phrase: phrase, Score: score})
	}

	sortPredictions(preds, opts.PreferTwoCharLength)

	count := opts.Count
	if count <= 0 || count > len(preds) {
		count = len(preds)
	}
	return preds[:count]
}

// chainPhrases extends each single-character prediction into 2-3 character
// phrases by chaining further bigrams, keeping the best-scoring chain per
// starting character.
func (m *Model) chainPhrases(seed map[string]float64, maxLen int) map[string]float64 {
	out := make(map[string]float64, len(seed))
	for ch, score := range seed {
		out[ch] = score
		cur := ch
		curScore := score
		for length := 2; length <= maxLen; length++ {
			bestNext, bestScore, found := "", m.FloorLogProb, false
			lastCh := []rune(cur)
			for bigram, s := range m.bigram {
				if bigram[0] == string(lastCh[len(lastCh)-1]) && s > bestScore {
					bestNext, bestScore, found = bigram[1], s, true
				}
			}
			if !found {
				break
			}
			cur += bestNext
			curScore += bestScore
			out[cur] = curScore
		}
	}
	return out
}

func sortPredictions(preds []Prediction, preferTwoChar bool) {
	less := func(i, j int) bool {
		if preferTwoChar {
			li, lj := len([]rune(preds[i].Phrase)), len([]rune(preds[j].Phrase))
			if (li == 2) != (lj == 2) {
				return li == 2
			}
		}
		return preds[i].Score > preds[j].Score
	}
	insertionSort(preds, less)
}

func insertionSort(preds []Prediction, less func(i, j int) bool) {
	for i := 1; i < len(preds); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			preds[j], preds[j-1] = preds[j-1], preds[j]
		}
	}
}

// SetUnigram, SetBigram, SetTrigram are used by build tooling (and
// Interpolator training) to populate the tables directly from pre-computed
// log-probabilities.
func (m *Model) SetUnigram(w string, logProb float64)                { m.unigram[w] = logProb }
func (m *Model) SetBigram(w1, w2 string, logProb float64)            { m.bigram[[2]string{w1, w2}] = logProb }
func (m *Model) SetTrigram(w1, w2, w3 string, logProb float64)       { m.trigram[[3]string{w1, w2, w3}] = logProb }

const ngramBlobFile = "ngram.msgpack"
const ngramMetaFile = "ngram.meta.json"

type diskFormat struct {
	FloorLogProb float64             `msgpack:"floor_log_prob"`
	Unigram      map[string]float64  `msgpack:"unigram"`
	Bigram       map[string]float64  `msgpack:"bigram"`
	Trigram      map[string]float64  `msgpack:"trigram"`
}

const bigramSep = "\x00"
const trigramSep = "\x00"

// Save persists the Model as a msgpack blob plus a JSON metadata sidecar.
func (m *Model) Save(dir string, corpus, smoothingMethod string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return imeerr.DataLoad("ngram.Save", err)
	}

	disk := diskFormat{
		FloorLogProb: m.FloorLogProb,
		Unigram:      m.unigram,
		Bigram:       make(map[string]float64, len(m.bigram)),
		Trigram:      make(map[string]float64, len(m.trigram)),
	}
	for k, v := range m.bigram {
		disk.Bigram[k[0]+bigramSep+k[1]] = v
	}
	for k, v := range m.trigram {
		disk.Trigram[k[0]+trigramSep+k[1]+trigramSep+k[2]] = v
	}

	blob, err := msgpack.Marshal(disk)
	if err != nil {
		return imeerr.DataLoad("ngram.Save", fmt.Errorf("encode: %w", err))
	}
	if err := os.WriteFile(filepath.Join(dir, ngramBlobFile), blob, 0644); err != nil {
		return imeerr.DataLoad("ngram.Save", err)
	}

	meta := Metadata{
		Version:         "1",
		CreatedAt:       time.Now().UTC(),
		Corpus:          corpus,
		UnigramCount:    len(m.unigram),
		BigramCount:     len(m.bigram),
		TrigramCount:    len(m.trigram),
		SmoothingMethod: smoothingMethod,
	}
	metaBlob, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return imeerr.DataLoad("ngram.Save", fmt.Errorf("encode metadata: %w", err))
	}
	return imeerr.DataLoad("ngram.Save", os.WriteFile(filepath.Join(dir, ngramMetaFile), metaBlob, 0644))
}

// Load reads a Model previously written by Save from dir.
func Load(dir string) (*Model, error) {
	blob, err := os.ReadFile(filepath.Join(dir, ngramBlobFile))
	if err != nil {
		return nil, imeerr.DataLoad("ngram.Load", err)
	}
	var disk diskFormat
	if err := msgpack.Unmarshal(blob, &disk); err != nil {
		return nil, imeerr.DataLoad("ngram.Load", fmt.Errorf("decode: %w", err))
	}

	var meta Metadata
	if metaBlob, err := os.ReadFile(filepath.Join(dir, ngramMetaFile)); err == nil {
		if jerr := json.Unmarshal(metaBlob, &meta); jerr != nil {
			return nil, imeerr.DataLoad("ngram.Load", fmt.Errorf("decode metadata: %w", jerr))
		}
	}

	m := &Model{
		FloorLogProb: disk.FloorLogProb,
		unigram:      disk.Unigram,
		bigram:       make(map[[2]string]float64, len(disk.Bigram)),
		trigram:      make(map[[3]string]float64, len(disk.Trigram)),
		meta:         meta,
	}
	for k, v := range disk.Bigram {
		parts := strings.SplitN(k, bigramSep, 2)
		m.bigram[[2]string{parts[0], parts[1]}] = v
	}
	for k, v := range disk.Trigram {
		parts := strings.SplitN(k, trigramSep, 3)
		m.trigram[[3]string{parts[0], parts[1], parts[2]}] = v
	}
	return m, nil
}

// Metadata returns the Model's load-time metadata.
func (m *Model) Metadata() Metadata {
	return m.meta
}
