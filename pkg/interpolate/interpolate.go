// Package interpolate implements the Interpolator: per-prefix adaptive
// n-gram smoothing weights, physically laid out the same way as the
// Lexicon (a radix-trie prefix index over a parallel array of records).
package interpolate

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/hanzi-ime/imecore/internal/utils"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/hanzi-ime/imecore/pkg/ngram"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vmihailenco/msgpack/v5"
)

// epsilon bounds how far a record's weights may drift from summing to 1.0.
const epsilon = 1e-6

// Record is one Interpolation Record: four non-negative weights summing to
// 1.0 within epsilon.
type Record struct {
	Trigram   float64 `msgpack:"trigram"`
	Bigram    float64 `msgpack:"bigram"`
	Unigram   float64 `msgpack:"unigram"`
	UserBoost float64 `msgpack:"user_boost"`
}

// Valid reports whether r satisfies the non-negativity and sum-to-1
// invariant required of every weight record.
func (r Record) Valid() bool {
	if r.Trigram < 0 || r.Bigram < 0 || r.Unigram < 0 || r.UserBoost < 0 {
		return false
	}
	sum := r.Trigram + r.Bigram + r.Unigram + r.UserBoost
	return math.Abs(sum-1.0) <= epsilon
}

// Defaults is returned by LambdasFor on a lookup miss.
type Defaults struct {
	Trigram float64
	Bigram  float64
	Unigram float64
}

// Interpolator is built with New and Insert, or read back with Load.
type Interpolator struct {
	trie     *patricia.Trie // prefix -> record index
	records  []Record
	defaults Defaults
}

// New returns an empty Interpolator that build tooling fills with Insert,
// with the given Config fallback defaults.
func New(defaults Defaults) *Interpolator {
	return &Interpolator{trie: patricia.NewTrie(), defaults: defaults}
}

// Insert adds r under prefix. Loading code must reject malformed records;
// Insert panics on an invalid record since it is a build-time programming
// error, not a runtime data condition.
func (ip *Interpolator) Insert(prefix string, r Record) {
	if !r.Valid() {
		panic(fmt.Sprintf("interpolate: record for prefix %q does not satisfy the weight invariant: %+v", prefix, r))
	}
	idx := len(ip.records)
	ip.records = append(ip.records, r)
	ip.trie.Insert(patricia.Prefix(prefix), idx)
}

// LambdasFor returns the interpolation weights for prefix, or the
// configured Config defaults on a lookup miss.
func (ip *Interpolator) LambdasFor(prefix string) ngram.Lambdas {
	item := ip.trie.Get(patricia.Prefix(prefix))
	if item == nil {
		return ngram.Lambdas{Trigram: ip.defaults.Trigram, Bigram: ip.defaults.Bigram, Unigram: ip.defaults.Unigram}
	}
	r := ip.records[item.(int)]
	return ngram.Lambdas{Trigram: r.Trigram, Bigram: r.Bigram, Unigram: r.Unigram}
}

// UserBoostFor returns the learned λ_userboost for prefix, or 0 on a miss.
func (ip *Interpolator) UserBoostFor(prefix string) float64 {
	item := ip.trie.Get(patricia.Prefix(prefix))
	if item == nil {
		return 0
	}
	return ip.records[item.(int)].UserBoost
}

// Len reports the number of prefix records.
func (ip *Interpolator) Len() int {
	return len(ip.records)
}

const interpolatorBlobFile = "interpolator.msgpack"
const interpolatorMetaFile = "interpolator.meta.json"

type diskRecord struct {
	Prefix string `msgpack:"prefix"`
	Record Record `msgpack:"record"`
}

// Metadata accompanies the serialized record set.
type Metadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Count     int       `json:"count"`
}

// Save persists the Interpolator under dir.
func (ip *Interpolator) Save(dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return imeerr.DataLoad("interpolate.Save", err)
	}

	records := make([]diskRecord, 0, len(ip.records))
	_ = ip.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		records = append(records, diskRecord{Prefix: string(p), Record: ip.records[item.(int)]})
		return nil
	})

	blob, err := msgpack.Marshal(records)
	if err != nil {
		return imeerr.DataLoad("interpolate.Save", fmt.Errorf("encode: %w", err))
	}
	if err := os.WriteFile(filepath.Join(dir, interpolatorBlobFile), blob, 0644); err != nil {
		return imeerr.DataLoad("interpolate.Save", err)
	}

	meta := Metadata{Version: "1", CreatedAt: time.Now().UTC(), Count: len(records)}
	metaBlob, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return imeerr.DataLoad("interpolate.Save", fmt.Errorf("encode metadata: %w", err))
	}
	return imeerr.DataLoad("interpolate.Save", os.WriteFile(filepath.Join(dir, interpolatorMetaFile), metaBlob, 0644))
}

// Load reads an Interpolator previously written by Save, rejecting any
// record that fails the weight invariant with a clear error.
func Load(dir string, defaults Defaults) (*Interpolator, error) {
	blob, err := os.ReadFile(filepath.Join(dir, interpolatorBlobFile))
	if err != nil {
		return nil, imeerr.DataLoad("interpolate.Load", err)
	}
	var records []diskRecord
	if err := msgpack.Unmarshal(blob, &records); err != nil {
		return nil, imeerr.DataLoad("interpolate.Load", fmt.Errorf("decode: %w", err))
	}

	ip := &Interpolator{trie: patricia.NewTrie(), defaults: defaults}
	ip.records = make([]Record, 0, len(records))
	for idx, rec := range records {
		if !rec.Record.Valid() {
			return nil, imeerr.DataLoad("interpolate.Load", fmt.Errorf(
				"record for prefix %q does not sum to 1.0 within %g: %+v", rec.Prefix, epsilon, rec.Record))
		}
		ip.trie.Insert(patricia.Prefix(rec.Prefix), idx)
		ip.records = append(ip.records, rec.Record)
	}
	return ip, nil
}
