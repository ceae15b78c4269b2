// Package lexicon implements the Lexicon: a phonetic-key -> ordered list of
// (phrase, frequency) entries, persisted as a radix-trie index over a
// msgpack-serialized payload array plus a JSON metadata sidecar.
package lexicon

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hanzi-ime/imecore/internal/utils"
	"github.com/hanzi-ime/imecore/pkg/imeerr"
	"github.com/oklog/ulid/v2"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

// Entry is one Lexicon Entry: a phrase, its frequency, and an optional
// stable identifier (a ULID, assigned at insert time when omitted).
type Entry struct {
	Phrase    string `msgpack:"phrase"`
	Frequency uint64 `msgpack:"frequency"`
	ID        string `msgpack:"id,omitempty"`
}

// Metadata accompanies the binary artifacts for debugging; it never
// affects lookup behavior.
type Metadata struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	SourceTables []string  `json:"source_tables"`
	EntryCount   int       `json:"entry_count"`
}

// Lexicon is safe for concurrent use; lookups never fail.
type Lexicon struct {
	mu       sync.RWMutex
	trie     *patricia.Trie // key -> payload id (int, boxed)
	payloads [][]Entry
	meta     Metadata
	entropy  *ulid.MonotonicEntropy
}

const lexiconPayloadFile = "lexicon.msgpack"
const lexiconMetaFile = "lexicon.meta.json"

// New returns an empty Lexicon that build tooling fills with Insert.
func New() *Lexicon {
	return &Lexicon{
		trie:    patricia.NewTrie(),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Insert adds phrase under key with the given frequency, assigning a ULID
// when id is empty. Duplicate (key, phrase) pairs are merged by summing
// frequency. Phrase text is NFC-normalized.
func (l *Lexicon) Insert(key, phrase string, frequency uint64, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	phrase = norm.NFC.String(phrase)
	if id == "" {
		id = ulid.MustNew(ulid.Now(), l.entropy).String()
	}

	item := l.trie.Get(patricia.Prefix(key))
	var payloadID int
	if item == nil {
		payloadID = len(l.payloads)
		l.payloads = append(l.payloads, nil)
		l.trie.Insert(patricia.Prefix(key), payloadID)
	} else {
		payloadID = item.(int)
	}

	entries := l.payloads[payloadID]
	for i, e := range entries {
		if e.Phrase == phrase {
			entries[i].Frequency += frequency
			l.sortEntries(entries)
			l.payloads[payloadID] = entries
			return
		}
	}
	entries = append(entries, Entry{Phrase: phrase, Frequency: frequency, ID: id})
	l.sortEntries(entries)
	l.payloads[payloadID] = entries
}

func (l *Lexicon) sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Frequency > entries[j].Frequency })
}

// InsertRanked adds phrases under key in the order given, for source
// tables that convey relative frequency only through file order rather
// than an explicit count (the data-conversion boundary never
// specifies a table format, so build tooling upstream of this library may
// hand it an order-only list). The first phrase receives the highest
// synthetic frequency.
func (l *Lexicon) InsertRanked(key string, phrases []string) {
	ranks := utils.CreateRankList(len(phrases))
	for i, phrase := range phrases {
		frequency := uint64(len(phrases)) - uint64(ranks[i]) + 1
		l.Insert(key, phrase, frequency, "")
	}
}

// Lookup returns the entries for key, descending by frequency. Never
// fails; returns an empty (nil) slice when key is absent.
func (l *Lexicon) Lookup(key string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item := l.trie.Get(patricia.Prefix(key))
	if item == nil {
		return nil
	}
	return l.payloads[item.(int)]
}

// PrefixMatch is one result of EnumerateWithPrefix.
type PrefixMatch struct {
	Key     string
	Entries []Entry
}

// EnumerateWithPrefix returns every (key, entries) pair whose key begins
// with prefix, for predictive completion. Callers must not hold references
// across subsequent Lookup/Insert calls.
func (l *Lexicon) EnumerateWithPrefix(prefix string) []PrefixMatch {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []PrefixMatch
	_ = l.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		out = append(out, PrefixMatch{Key: string(p), Entries: l.payloads[item.(int)]})
		return nil
	})
	return out
}

// Len reports the number of distinct keys in the Lexicon.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.payloads)
}

// diskRecord is one element of the single msgpack blob written to
// lexiconPayloadFile: a flat array of (key, entries) records, rebuilt into
// the trie on Load.
type diskRecord struct {
	Key     string  `msgpack:"key"`
	Entries []Entry `msgpack:"entries"`
}

// Save persists the Lexicon under dir as a msgpack payload blob plus a JSON
// metadata sidecar.
func (l *Lexicon) Save(dir string, sourceTables []string) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := utils.EnsureDir(dir); err != nil {
		return imeerr.DataLoad("Lexicon.Save", err)
	}

	records := make([]diskRecord, 0, len(l.payloads))
	_ = l.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		records = append(records, diskRecord{Key: string(p), Entries: l.payloads[item.(int)]})
		return nil
	})

	blob, err := msgpack.Marshal(records)
	if err != nil {
		return imeerr.DataLoad("Lexicon.Save", fmt.Errorf("encode payload: %w", err))
	}
	if err := os.WriteFile(filepath.Join(dir, lexiconPayloadFile), blob, 0644); err != nil {
		return imeerr.DataLoad("Lexicon.Save", err)
	}

	meta := Metadata{
		Version:      "1",
		CreatedAt:    time.Now().UTC(),
		SourceTables: sourceTables,
		EntryCount:   len(records),
	}
	metaBlob, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return imeerr.DataLoad("Lexicon.Save", fmt.Errorf("encode metadata: %w", err))
	}
	return imeerr.DataLoad("Lexicon.Save", os.WriteFile(filepath.Join(dir, lexiconMetaFile), metaBlob, 0644))
}

// Load reads a Lexicon previously written by Save from dir.
func Load(dir string) (*Lexicon, error) {
	blob, err := os.ReadFile(filepath.Join(dir, lexiconPayloadFile))
	if err != nil {
		return nil, imeerr.DataLoad("lexicon.Load", err)
	}
	var records []diskRecord
	if err := msgpack.Unmarshal(blob, &records); err != nil {
		return nil, imeerr.DataLoad("lexicon.Load", fmt.Errorf("decode payload: %w", err))
	}

	metaBlob, err := os.ReadFile(filepath.Join(dir, lexiconMetaFile))
	var meta Metadata
	if err == nil {
		if jerr := json.Unmarshal(metaBlob, &meta); jerr != nil {
			return nil, imeerr.DataLoad("lexicon.Load", fmt.Errorf("decode metadata: %w", jerr))
		}
	}

	l := &Lexicon{
		trie:    patricia.NewTrie(),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		meta:    meta,
	}
	l.payloads = make([][]Entry, 0, len(records))
	for id, rec := range records {
		l.trie.Insert(patricia.Prefix(rec.Key), id)
		l.payloads = append(l.payloads, rec.Entries)
	}
	return l, nil
}

// Metadata returns the Lexicon's load-time metadata.
func (l *Lexicon) Metadata() Metadata {
	return l.meta
}
