// Package model aggregates the Lexicon, N-gram Model, Interpolator, and
// syllable Alphabet into one artifact set that is loaded once at startup
// and handed to the Engine.
package model

import (
	"os"
	"path/filepath"

	"github.com/hanzi-ime/imecore/internal/utils"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/hanzi-ime/imecore/pkg/interpolate"
	"github.com/hanzi-ime/imecore/pkg/lexicon"
	"github.com/hanzi-ime/imecore/pkg/ngram"
	"github.com/hanzi-ime/imecore/pkg/syllable"
)

// Model bundles every read-mostly data artifact the Engine needs to turn
// a phonetic string into scored candidates. All fields are safe for
// concurrent reads; none are mutated after Load.
type Model struct {
	Lexicon      *lexicon.Lexicon
	NGram        *ngram.Model
	Interpolator *interpolate.Interpolator
	Alphabet     *syllable.Alphabet
}

const (
	lexiconSubdir      = "lexicon"
	ngramSubdir        = "ngram"
	interpolatorSubdir = "interpolator"
	alphabetFile       = "alphabet.txt"
)

// Load reads every artifact from its subdirectory under dir, built by
// offline data-conversion tooling out of this library's scope. interpDefaults
// supplies the Config-level fallback weights used for any prefix the
// Interpolator has no learned record for.
func Load(dir string, interpDefaults interpolate.Defaults) (*Model, error) {
	lex, err := lexicon.Load(filepath.Join(dir, lexiconSubdir))
	if err != nil {
		return nil, imeerr.DataLoad("model.Load", err)
	}

	ngramModel, err := ngram.Load(filepath.Join(dir, ngramSubdir))
	if err != nil {
		return nil, imeerr.DataLoad("model.Load", err)
	}

	interp, err := interpolate.Load(filepath.Join(dir, interpolatorSubdir), interpDefaults)
	if err != nil {
		return nil, imeerr.DataLoad("model.Load", err)
	}

	alphaFile, err := os.Open(filepath.Join(dir, alphabetFile))
	if err != nil {
		return nil, imeerr.DataLoad("model.Load", err)
	}
	defer alphaFile.Close()
	alphabet, err := syllable.LoadAlphabet(alphaFile)
	if err != nil {
		return nil, imeerr.DataLoad("model.Load", err)
	}

	return &Model{Lexicon: lex, NGram: ngramModel, Interpolator: interp, Alphabet: alphabet}, nil
}

// Save persists every artifact under its subdirectory of dir. The
// Alphabet is not re-serialized since it is treated as static build
// input, not a runtime-learned artifact.
func (m *Model) Save(dir, corpus, smoothingMethod string, sourceTables []string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return imeerr.DataLoad("model.Save", err)
	}
	if err := m.Lexicon.Save(filepath.Join(dir, lexiconSubdir), sourceTables); err != nil {
		return err
	}
	if err := m.NGram.Save(filepath.Join(dir, ngramSubdir), corpus, smoothingMethod); err != nil {
		return err
	}
	return m.Interpolator.Save(filepath.Join(dir, interpolatorSubdir))
}
