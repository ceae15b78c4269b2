/*
Package config manages TOML config for imecore.

InitConfig handles automatic config file creation and loading with fallback to defaults.
LoadConfig and SaveConfig provide direct fs for runtime changes.
Update allows targeted parameter changes with persistence.
*/
package config

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/hanzi-ime/imecore/internal/utils"
)

// Config holds the entire config structure for an Engine instance.
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Parser     ParserConfig     `toml:"parser"`
	Scoring    ScoringConfig    `toml:"scoring"`
	Fuzzy      FuzzyConfig      `toml:"fuzzy"`
	Ranking    RankingConfig    `toml:"ranking"`
	Prediction PredictionConfig `toml:"prediction"`
	Editor     EditorConfig     `toml:"editor"`
}

// EditorConfig holds fields this library stores and round-trips through
// TOML on the editor layer's behalf but never reads itself: selection-key
// mapping and full-width punctuation/digit toggling both happen above the
// segmentation/scoring pipeline, in the editor that embeds this library.
type EditorConfig struct {
	// SelectKeys are the candidate-selection keys, in rank order, the
	// editor binds to pick candidate 1..len(SelectKeys).
	SelectKeys string `toml:"select_keys"`
	// FullWidthEnabled toggles full-width rendering of committed
	// punctuation/digits in the editor.
	FullWidthEnabled bool `toml:"full_width_enabled"`
}

// EngineConfig has top level engine behavior options.
type EngineConfig struct {
	DataDir           string  `toml:"data_dir"`
	CacheCapacity     int     `toml:"cache_capacity"`
	MaxCandidates     int     `toml:"max_candidates"`
	UserDictPath      string  `toml:"user_dict_path"`
	EnableUserDict    bool    `toml:"enable_user_dict"`
	SegmentationBeam  int     `toml:"segmentation_beam"`
	SegmentationFuzzyPenalty float64 `toml:"segmentation_fuzzy_penalty"`
}

// ParserConfig controls phonetic segmentation behavior.
type ParserConfig struct {
	Scheme             string  `toml:"scheme"` // "pinyin", "zhuyin", "double_pinyin"
	DoublePinyinLayout string  `toml:"double_pinyin_layout"`
	MaxSyllableLen     int     `toml:"max_syllable_len"`
	AllowIncomplete    bool    `toml:"allow_incomplete"`
	UseTone            bool    `toml:"use_tone"`
	ForceTone          bool    `toml:"force_tone"`
	CorrectUeVe        bool    `toml:"correct_ue_ve"`
	CorrectVU          bool    `toml:"correct_v_u"`
	CorrectUenUn       bool    `toml:"correct_uen_un"`
	CorrectGnNg        bool    `toml:"correct_gn_ng"`
	CorrectMgNg        bool    `toml:"correct_mg_ng"`
	CorrectIouIu       bool    `toml:"correct_iou_iu"`
	CorrectionPenalty  float64 `toml:"correction_penalty"`
	IncompletePenalty  float64 `toml:"incomplete_penalty"`
	UnknownPenalty     float64 `toml:"unknown_penalty"`
	ZhuyinIncomplete     bool `toml:"zhuyin_incomplete"`
	ZhuyinCorrectShuffle bool `toml:"zhuyin_correct_shuffle"`
	ZhuyinCorrectHSU     bool `toml:"zhuyin_correct_hsu"`
	ZhuyinCorrectEten26  bool `toml:"zhuyin_correct_eten26"`
}

// ScoringConfig controls the n-gram scorer.
type ScoringConfig struct {
	UnknownFloorLogProb float64 `toml:"unknown_floor_log_prob"`
	MaxPredictNext      int     `toml:"max_predict_next"`
	// UnigramWeight, BigramWeight, TrigramWeight are the fallback
	// interpolation weights used for any prefix the Interpolator has no
	// learned record for.
	UnigramWeight float64 `toml:"unigram_weight"`
	BigramWeight  float64 `toml:"bigram_weight"`
	TrigramWeight float64 `toml:"trigram_weight"`
}

// FuzzyConfig controls fuzzy phonetic expansion.
type FuzzyConfig struct {
	Enabled       bool    `toml:"enabled"`
	RuleSet       string  `toml:"rule_set"` // e.g. "pinyin-loose", "zhuyin-hsu", "" for custom only
	MaxExpansions int     `toml:"max_expansions"`
	MaxPenalty    float64 `toml:"max_penalty"`
}

// RankingConfig controls how candidates are ordered and boosted.
type RankingConfig struct {
	// UserBoostBase is added to ln(1 + UserDict.Frequency(phrase)) to form
	// the user contribution to a candidate's score. Defaults to 0; the
	// editor layer's post-commit prediction path uses a higher value to
	// favor just-committed phrases, but that policy lives outside this
	// library.
	UserBoostBase                float64  `toml:"user_boost_base"`
	FuzzyPenaltyScale           float64  `toml:"fuzzy_penalty_scale"`
	SortByPhraseLength          bool     `toml:"sort_by_phrase_length"`
	SortByPinyinLength          bool     `toml:"sort_by_pinyin_length"`
	SortWithoutLongerCandidate  bool     `toml:"sort_without_longer_candidate"`
	PreferPhrasePredictions     bool     `toml:"prefer_phrase_predictions"`
	MaskedPhrases               []string `toml:"masked_phrases"`
}

// PredictionConfig controls next-word prediction behavior.
type PredictionConfig struct {
	Enabled             bool    `toml:"enabled"`
	MaxSuggestions      int     `toml:"max_suggestions"`
	MaxPredictionLength int     `toml:"max_prediction_length"`
	MinPredictionFreq   float64 `toml:"min_prediction_frequency"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			DataDir:                  "data/",
			CacheCapacity:            2048,
			MaxCandidates:            10,
			UserDictPath:             "userdict.db",
			EnableUserDict:           true,
			SegmentationBeam:         8,
			SegmentationFuzzyPenalty: 1.0,
		},
		Parser: ParserConfig{
			Scheme:               "pinyin",
			DoublePinyinLayout:   "",
			MaxSyllableLen:       6,
			AllowIncomplete:      true,
			UseTone:              true,
			ForceTone:            false,
			CorrectUeVe:          true,
			CorrectVU:            true,
			CorrectUenUn:         true,
			CorrectGnNg:          true,
			CorrectMgNg:          true,
			CorrectIouIu:         true,
			CorrectionPenalty:    200,
			IncompletePenalty:    500,
			UnknownPenalty:       1000,
			ZhuyinIncomplete:     true,
			ZhuyinCorrectShuffle: true,
			ZhuyinCorrectHSU:     true,
			ZhuyinCorrectEten26:  true,
		},
		Scoring: ScoringConfig{
			UnknownFloorLogProb: -18.0,
			MaxPredictNext:      8,
			UnigramWeight:       0.6,
			BigramWeight:        0.3,
			TrigramWeight:       0.1,
		},
		Fuzzy: FuzzyConfig{
			Enabled:       false,
			RuleSet:       "",
			MaxExpansions: 64,
			MaxPenalty:    4.0,
		},
		Ranking: RankingConfig{
			UserBoostBase:              0.0,
			FuzzyPenaltyScale:          1.0,
			SortByPhraseLength:         false,
			SortByPinyinLength:         false,
			SortWithoutLongerCandidate: false,
			PreferPhrasePredictions:    false,
			MaskedPhrases:              nil,
		},
		Prediction: PredictionConfig{
			Enabled:             true,
			MaxSuggestions:      5,
			MaxPredictionLength: 1,
			MinPredictionFreq:   -15.0,
		},
		Editor: EditorConfig{
			SelectKeys:       "123456789",
			FullWidthEnabled: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		return nil, err
	}
	if !utils.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: ( %s )", utils.GetAbsolutePath(configPath))
		return cfg, nil
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config, using defaults: %v", err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config
	if err := utils.LoadTOMLFile(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig saves into a TOML file
func SaveConfig(cfg *Config, configPath string) error {
	return utils.SaveTOMLFile(cfg, configPath)
}

// Update changes engine-level config values and saves to file
func (c *Config) Update(configPath string, cacheCapacity, maxCandidates *int, enableUserDict *bool) error {
	engine := &c.Engine
	if cacheCapacity != nil {
		engine.CacheCapacity = *cacheCapacity
	}
	if maxCandidates != nil {
		engine.MaxCandidates = *maxCandidates
	}
	if enableUserDict != nil {
		engine.EnableUserDict = *enableUserDict
	}
	return SaveConfig(c, configPath)
}
