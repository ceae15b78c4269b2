// Command imecore is a thin entrypoint over pkg/engine: it loads Config
// and the data-directory Model, then either scores a single phonetic
// string passed on the command line or drops into a debug REPL loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/hanzi-ime/imecore/internal/cli"
	"github.com/hanzi-ime/imecore/internal/logger"
	"github.com/hanzi-ime/imecore/internal/utils"
	"github.com/hanzi-ime/imecore/pkg/config"
	"github.com/hanzi-ime/imecore/pkg/engine"
	"github.com/hanzi-ime/imecore/pkg/fuzzy"
	"github.com/hanzi-ime/imecore/pkg/interpolate"
	"github.com/hanzi-ime/imecore/pkg/model"
	"github.com/hanzi-ime/imecore/pkg/syllable"
	"github.com/hanzi-ime/imecore/pkg/userdict"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to imecore.toml (default: platform config dir)")
		dataDir    = flag.String("data-dir", "", "path to the data directory (overrides config's data_dir)")
		repl       = flag.Bool("repl", false, "run the interactive debug REPL instead of single-shot mode")
		debug      = flag.Bool("d", false, "enable debug logging")
	)
	flag.Parse()

	if *debug {
		charmlog.SetLevel(charmlog.DebugLevel)
	}
	log := logger.New("imecore")

	resolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("resolve paths: %v", err)
		if execDir, execErr := utils.GetExecutableDir(); execErr == nil {
			log.Warnf("executable directory: %s", execDir)
		}
		log.Fatalf("cannot continue without a usable path resolver")
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath, err = resolver.GetConfigPath("imecore.toml")
		if err != nil {
			log.Fatalf("resolve config path: %v", err)
		}
	}
	cfg, err := config.InitConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dataDir != "" {
		cfg.Engine.DataDir = *dataDir
	}

	resolvedDataDir, err := resolver.GetDataDir(cfg.Engine.DataDir)
	if err != nil {
		log.Fatalf("resolve data directory: %v", err)
	}

	dirStatus := utils.CheckDirStatus(resolvedDataDir)
	if dirStatus.Error != nil {
		log.Fatalf("data directory %s unusable: %v", utils.GetAbsolutePath(resolvedDataDir), dirStatus.Error)
	}
	if !dirStatus.Writable {
		log.Warnf("data directory %s is not writable; user dictionary persistence will fail", utils.GetAbsolutePath(resolvedDataDir))
	}

	m, err := model.Load(resolvedDataDir, interpolate.Defaults{
		Trigram: cfg.Scoring.TrigramWeight,
		Bigram:  cfg.Scoring.BigramWeight,
		Unigram: cfg.Scoring.UnigramWeight,
	})
	if err != nil {
		log.Fatalf("load model: %v", err)
	}

	fuzzyRules, err := engine.FuzzyRules(cfg)
	if err != nil {
		log.Fatalf("load fuzzy rules: %v", err)
	}
	fuzzyMap := fuzzy.NewMap(fuzzyRules, fuzzy.DefaultPenalty)

	parser := buildParser(cfg, m.Alphabet, fuzzyMap)

	userDictPath := cfg.Engine.UserDictPath
	if !filepath.IsAbs(userDictPath) {
		userDictPath = filepath.Join(resolvedDataDir, userDictPath)
	}
	var store *userdict.Store
	if cfg.Engine.EnableUserDict {
		store, err = userdict.Open(userDictPath)
		if err != nil {
			log.Fatalf("open user dictionary: %v", err)
		}
		defer store.Close()
	}

	eng, err := engine.NewWithFuzzyRules(m, parser, store, cfg, fuzzyRules)
	if err != nil {
		log.Fatalf("construct engine: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		os.Exit(0)
	}()

	if *repl {
		r := &cli.REPL{Engine: eng, In: os.Stdin, Out: os.Stdout}
		if err := r.Run(); err != nil {
			log.Fatalf("repl: %v", err)
		}
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: imecore [-repl] [-config path] [-data-dir path] <phonetic-string>")
		os.Exit(2)
	}
	for _, input := range args {
		candidates := eng.Input(input)
		fmt.Printf("%s:\n", input)
		for i, c := range candidates {
			fmt.Printf("  %2d. %s  (%.4f)\n", i+1, c.Text, c.Score)
		}
	}
}

// buildParser constructs the configured Parser family (Pinyin, Zhuyin, or
// Double-Pinyin) from cfg.Parser, sharing the loaded Alphabet and the same
// Fuzzy Map the Engine uses for its sequence-level expansion, so the
// parser's own per-syllable fuzzy-alternative branch draws from it too.
func buildParser(cfg *config.Config, alphabet *syllable.Alphabet, fuzzyMap *fuzzy.Map) syllable.Parser {
	switch cfg.Parser.Scheme {
	case "zhuyin":
		opts := syllable.ZhuyinOptions{
			Incomplete:        cfg.Parser.ZhuyinIncomplete,
			CorrectShuffle:    cfg.Parser.ZhuyinCorrectShuffle,
			CorrectHSU:        cfg.Parser.ZhuyinCorrectHSU,
			CorrectETEN26:     cfg.Parser.ZhuyinCorrectEten26,
			CorrectionPenalty: cfg.Parser.CorrectionPenalty,
			IncompletePenalty: cfg.Parser.IncompletePenalty,
			UnknownPenalty:    cfg.Parser.UnknownPenalty,
		}
		return syllable.NewZhuyinParser(alphabet, fuzzyMap, opts)
	case "double_pinyin":
		full := syllable.NewPinyinParser(alphabet, fuzzyMap, pinyinOptionsFromConfig(cfg))
		return syllable.NewDoublePinyinParser(full, syllable.DoublePinyinScheme(cfg.Parser.DoublePinyinLayout))
	default:
		return syllable.NewPinyinParser(alphabet, fuzzyMap, pinyinOptionsFromConfig(cfg))
	}
}

func pinyinOptionsFromConfig(cfg *config.Config) syllable.PinyinOptions {
	return syllable.PinyinOptions{
		AllowIncomplete:        cfg.Parser.AllowIncomplete,
		UseTone:                cfg.Parser.UseTone,
		ForceTone:              cfg.Parser.ForceTone,
		CorrectUeVe:            cfg.Parser.CorrectUeVe,
		CorrectVU:              cfg.Parser.CorrectVU,
		CorrectUenUn:           cfg.Parser.CorrectUenUn,
		CorrectGnNg:            cfg.Parser.CorrectGnNg,
		CorrectMgNg:            cfg.Parser.CorrectMgNg,
		CorrectIouIu:           cfg.Parser.CorrectIouIu,
		CorrectionPenalty:      cfg.Parser.CorrectionPenalty,
		FuzzyPenaltyMultiplier: 1.0,
		IncompletePenalty:      cfg.Parser.IncompletePenalty,
		UnknownPenalty:         cfg.Parser.UnknownPenalty,
	}
}
