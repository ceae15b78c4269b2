// Package engine implements the Engine orchestrator: the single
// entry point wrapping segmentation, lexicon lookup, n-gram/user scoring,
// and an LRU result cache behind the input/commit contract.
package engine

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hanzi-ime/imecore/internal/logger"
	"github.com/hanzi-ime/imecore/pkg/config"
	"github.com/hanzi-ime/imecore/pkg/fuzzy"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/hanzi-ime/imecore/pkg/model"
	"github.com/hanzi-ime/imecore/pkg/ngram"
	"github.com/hanzi-ime/imecore/pkg/syllable"
	"github.com/hanzi-ime/imecore/pkg/userdict"
)

// Candidate is one scored result of Input.
type Candidate struct {
	Text  string
	Score float64
}

// Engine ties together the read-only Model, a phonetic Parser, a Fuzzy
// Map, and the mutable User Dictionary and LRU cache. Safe for concurrent
// use: the cache is internally synchronized and the Model/Parser/FuzzyMap
// are read-only after construction.
type Engine struct {
	model    *model.Model
	parser   syllable.Parser
	fuzzyMap *fuzzy.Map
	userDict *userdict.Store
	cfg      *config.Config

	cache  *lru.Cache[string, []Candidate]
	hits   atomic.Int64
	misses atomic.Int64

	log *charmlog.Logger
}

// separator is the Lexicon key join character for multi-token phonetic
// sequences. It is used for every parser family, Zhuyin included, even
// though Zhuyin input itself has no separator character.
const separator = "'"

// New constructs an Engine with the default Fuzzy Map sourced from
// cfg.Fuzzy (its rule_set preset, when fuzzy matching is enabled), and an
// LRU cache sized by cfg.Engine.CacheCapacity. Config has no field for
// inline textual rules; those reach an Engine only through
// NewWithFuzzyRules.
func New(m *model.Model, parser syllable.Parser, userDict *userdict.Store, cfg *config.Config) (*Engine, error) {
	rules, err := FuzzyRules(cfg)
	if err != nil {
		return nil, imeerr.Config("engine.New", err)
	}
	return NewWithFuzzyRules(m, parser, userDict, cfg, rules)
}

// FuzzyRules resolves cfg.Fuzzy (its rule_set preset, if any) into the rule
// set New would build its Fuzzy Map from. Exported so a caller constructing
// the Parser before the Engine can build the parser's Map from the same
// rules it then passes to NewWithFuzzyRules, giving the parser the same
// fuzzy alternatives the Engine's segmentation-sequence expansion uses.
func FuzzyRules(cfg *config.Config) ([]fuzzy.Rule, error) {
	if !cfg.Fuzzy.Enabled {
		return nil, nil
	}
	var rules []fuzzy.Rule
	if cfg.Fuzzy.RuleSet != "" {
		presetRules, err := fuzzy.LoadPreset(cfg.Fuzzy.RuleSet)
		if err != nil {
			return nil, err
		}
		rules = append(rules, presetRules...)
	}
	return rules, nil
}

// NewWithFuzzyRules constructs an Engine with an explicit rule set,
// bypassing cfg.Fuzzy.RuleSet.
func NewWithFuzzyRules(m *model.Model, parser syllable.Parser, userDict *userdict.Store, cfg *config.Config, rules []fuzzy.Rule) (*Engine, error) {
	capacity := cfg.Engine.CacheCapacity
	if capacity <= 0 {
		capacity = 1000
	}
	cache, err := lru.New[string, []Candidate](capacity)
	if err != nil {
		return nil, imeerr.Config("engine.New", fmt.Errorf("construct cache: %w", err))
	}
	return &Engine{
		model:    m,
		parser:   parser,
		fuzzyMap: fuzzy.NewMap(rules, fuzzy.DefaultPenalty),
		userDict: userDict,
		cfg:      cfg,
		cache:    cache,
		log:      logger.New("engine"),
	}, nil
}

// Input runs the full segmentation -> expansion -> scoring -> ranking
// pipeline for a phonetic string.
func (e *Engine) Input(phonetic string) []Candidate {
	traceID := uuid.NewString()

	if cached, ok := e.cache.Get(phonetic); ok {
		e.hits.Add(1)
		e.log.Debugf("trace=%s input(%q) cache hit, %d candidates", traceID, phonetic, len(cached))
		return cached
	}
	e.misses.Add(1)

	if phonetic == "" {
		e.cache.Add(phonetic, nil)
		return nil
	}

	segmentations := e.parser.SegmentTopK(phonetic, e.beamWidth(), true)
	if len(segmentations) == 0 {
		e.cache.Add(phonetic, nil)
		e.log.Debugf("trace=%s input(%q) produced no segmentation", traceID, phonetic)
		return nil
	}

	best := make(map[string]float64)
	maxExpansions := e.cfg.Fuzzy.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = 64
	}
	fuzzyPenalty := e.cfg.Engine.SegmentationFuzzyPenalty
	if fuzzyPenalty == 0 {
		fuzzyPenalty = fuzzy.DefaultPenalty
	}

	for _, seg := range segmentations {
		tokenTexts := make([]string, len(seg.Tokens))
		for i, tok := range seg.Tokens {
			tokenTexts[i] = tok.Text
		}
		sigmaPenalty := 0.0
		if seg.IsFuzzy() {
			sigmaPenalty = fuzzyPenalty
		}

		for _, alt := range e.fuzzyMap.ExpandSequence(tokenTexts, maxExpansions) {
			key := joinKey(alt.Tokens)
			entries := e.model.Lexicon.Lookup(key)
			if len(entries) == 0 {
				continue
			}
			lambdasDefault := e.model.Interpolator.LambdasFor(key)
			for _, entry := range entries {
				lexScore := math.Log(1 + float64(entry.Frequency))
				ngramScore := e.scorePhrase(entry.Phrase, key, lambdasDefault)
				userFreq := e.userFrequency(entry.Phrase)
				userScore := e.cfg.Ranking.UserBoostBase + math.Log(1+float64(userFreq))
				score := lexScore + ngramScore + userScore - (alt.Penalty + sigmaPenalty)

				if cur, ok := best[entry.Phrase]; !ok || score > cur {
					best[entry.Phrase] = score
				}
			}
		}
	}

	candidates := make([]Candidate, 0, len(best))
	for phrase, score := range best {
		candidates = append(candidates, Candidate{Text: phrase, Score: score})
	}
	candidates = e.applySecondaryRanking(candidates, segmentations)

	limit := e.cfg.Engine.MaxCandidates
	if limit <= 0 {
		limit = 10
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	e.cache.Add(phonetic, candidates)
	e.log.Debugf("trace=%s input(%q) -> %d candidates", traceID, phonetic, len(candidates))
	return candidates
}

func (e *Engine) beamWidth() int {
	beam := e.cfg.Engine.SegmentationBeam
	if beam <= 0 {
		beam = 8
	}
	return beam
}

func joinKey(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += separator
		}
		out += t
	}
	return out
}

// scorePhrase scores a Lexicon phrase as a token sequence of its graphemes
// (single characters for Chinese phrases), using the interpolation weights
// looked up once for the Lexicon key rather than the phrase's own prefixes.
func (e *Engine) scorePhrase(phrase, key string, lambdas ngram.Lambdas) float64 {
	runes := []rune(phrase)
	tokens := make([]string, len(runes))
	for i, r := range runes {
		tokens[i] = string(r)
	}
	return e.model.NGram.ScoreSequence(tokens, func(string) ngram.Lambdas {
		return lambdas
	})
}

func (e *Engine) userFrequency(phrase string) uint64 {
	if e.userDict == nil {
		return 0
	}
	return e.userDict.Frequency(phrase)
}

// applySecondaryRanking drops masked phrases, applies the phrase-length and
// pinyin-length penalties, drops phrases longer than the first
// segmentation's syllable count when SortWithoutLongerCandidate is set, and
// then sorts by score descending, with 2-char phrases first when
// PreferPhrasePredictions is set.
func (e *Engine) applySecondaryRanking(candidates []Candidate, segmentations []syllable.Segmentation) []Candidate {
	syllableCount := 0
	if len(segmentations) > 0 {
		syllableCount = len(segmentations[0].Tokens)
	}

	masked := make(map[string]bool, len(e.cfg.Ranking.MaskedPhrases))
	for _, p := range e.cfg.Ranking.MaskedPhrases {
		masked[p] = true
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if masked[c.Text] {
			continue
		}
		score := c.Score
		charCount := len([]rune(c.Text))
		if e.cfg.Ranking.SortByPhraseLength {
			score -= float64(charCount-1) * 0.5
		}
		if e.cfg.Ranking.SortByPinyinLength {
			score -= float64(syllableCount-1) * 0.3
		}
		if e.cfg.Ranking.SortWithoutLongerCandidate && charCount > syllableCount {
			continue
		}
		out = append(out, Candidate{Text: c.Text, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if e.cfg.Ranking.PreferPhrasePredictions {
			li, lj := len([]rune(out[i].Text)), len([]rune(out[j].Text))
			if (li == 2) != (lj == 2) {
				return li == 2
			}
		}
		return out[i].Score > out[j].Score
	})
	return out
}

// Commit records phrase as user-learned and invalidates the whole cache:
// a new user boost can shift unrelated phrases' relative ordering too, so
// partial invalidation would leave stale results cached.
func (e *Engine) Commit(phrase string) error {
	if e.userDict == nil {
		return nil
	}
	runes := []rune(phrase)
	if len(runes) >= 2 {
		for i := 0; i < len(runes)-1; i++ {
			_ = e.userDict.LearnBigram(string(runes[i]), string(runes[i+1]))
		}
	}
	err := e.userDict.Learn(phrase)
	e.cache.Purge()
	if err != nil {
		return imeerr.UserDict("engine.Commit", err)
	}
	return nil
}

// ClearCache empties the LRU cache without affecting counters.
func (e *Engine) ClearCache() {
	e.cache.Purge()
}

// CacheStats returns hit/miss totals and current/maximum cache occupancy.
func (e *Engine) CacheStats() (hits, misses, size, capacity int64) {
	return e.hits.Load(), e.misses.Load(), int64(e.cache.Len()), int64(e.cacheCapacity())
}

func (e *Engine) cacheCapacity() int {
	capacity := e.cfg.Engine.CacheCapacity
	if capacity <= 0 {
		return 1000
	}
	return capacity
}
