package syllable

// DoublePinyinScheme names one of the required keyboard mapping schemes.
type DoublePinyinScheme string

const (
	SchemeMicrosoft     DoublePinyinScheme = "Microsoft"
	SchemeZiRanMa       DoublePinyinScheme = "ZiRanMa"
	SchemeZiGuang       DoublePinyinScheme = "ZiGuang"
	SchemeABC           DoublePinyinScheme = "ABC"
	SchemeXiaoHe        DoublePinyinScheme = "XiaoHe"
	SchemePinYinPlusPlus DoublePinyinScheme = "PinYinPlusPlus"
)

// SchemeTable maps a scheme's 2-key codes to (initial, final) pinyin parts.
type SchemeTable struct {
	Initials map[byte]string
	Finals   map[byte]string
}

// standardInitials is the single-letter initial mapping shared by every
// scheme below; schemes only disagree on the three compound initials
// (zh/ch/sh, each needing a second key since the alphabet has 26 keys and
// more initials than that) and on the finals layout.
func standardInitials() map[byte]string {
	return map[byte]string{
		'b': "b", 'c': "c", 'd': "d", 'f': "f", 'g': "g", 'h': "h",
		'j': "j", 'k': "k", 'l': "l", 'm': "m", 'n': "n", 'p': "p",
		'q': "q", 'r': "r", 's': "s", 't': "t", 'w': "w", 'x': "x",
		'y': "y", 'z': "z",
	}
}

func withCompoundInitials(zh, ch, sh byte) map[byte]string {
	m := standardInitials()
	m[zh] = "zh"
	m[ch] = "ch"
	m[sh] = "sh"
	return m
}

// doublePinyinSchemes is the set of built-in scheme tables. Each is
// necessarily partial here (covering the common mappings); an unmapped
// 2-gram yields no match and the DP falls back to Full-Pinyin per
// the shared segmentation algorithm.
var doublePinyinSchemes = map[DoublePinyinScheme]SchemeTable{
	SchemeMicrosoft: {
		Initials: withCompoundInitials('v', 'i', 'u'),
		Finals: map[byte]string{
			'a': "a", 'o': "o", 'e': "e", 'i': "i", 'u': "u", 'v': "v",
			'h': "ang", 'k': "uai", 'l': "uan", 'q': "iu", 'r': "er",
			'n': "un", 'f': "en", 'g': "eng", 'b': "ou", 'c': "iao",
		},
	},
	SchemeZiRanMa: {
		Initials: withCompoundInitials('v', 'i', 'u'),
		Finals: map[byte]string{
			'h': "ang", 'k': "uai", 'l': "uan", 'q': "iu", 'r': "er",
		},
	},
	// ZiGuang (紫光拼音) shares Microsoft's compound-initial keys but
	// assigns two more finals Microsoft leaves to Full-Pinyin fallback.
	SchemeZiGuang: {
		Initials: withCompoundInitials('v', 'i', 'u'),
		Finals: map[byte]string{
			'a': "a", 'o': "o", 'e': "e", 'i': "i", 'u': "u", 'v': "v",
			'h': "ang", 'k': "uai", 'l': "uan", 'q': "iu", 'r': "er",
			'n': "un", 'f': "en", 'g': "eng", 'b': "ou", 'c': "iao",
			'd': "ing", 't': "ua",
		},
	},
	// ABC (智能ABC) puts the three compound initials on a/e/v instead of
	// v/i/u, and lays finals out differently from the Microsoft family.
	SchemeABC: {
		Initials: withCompoundInitials('a', 'e', 'v'),
		Finals: map[byte]string{
			'l': "ai", 'z': "ei", 'k': "ao", 'b': "ou", 'j': "an",
			'f': "en", 'h': "ang", 'g': "eng", 'r': "er", 'n': "iao",
			'm': "ian", 'd': "iang", 'p': "ie", 'q': "in",
		},
	},
	// XiaoHe (小鹤双拼) keeps Microsoft's compound initials but is best
	// known for a finals layout that favors single-key compound finals.
	SchemeXiaoHe: {
		Initials: withCompoundInitials('v', 'i', 'u'),
		Finals: map[byte]string{
			'q': "iu", 'z': "ei", 'r': "uan", 'd': "iang", 'n': "iao",
			'm': "ian", 'h': "ang", 'k': "uai", 'l': "uan", 'b': "ou",
			'f': "en", 'g': "eng",
		},
	},
	// PinYinPlusPlus (拼音加加) follows ZiRanMa's compound initials with
	// its own finals assignment.
	SchemePinYinPlusPlus: {
		Initials: withCompoundInitials('v', 'i', 'u'),
		Finals: map[byte]string{
			'f': "en", 'g': "eng", 'h': "ang", 'm': "ian", 'd': "iang",
			'c': "iao", 'b': "ou", 't': "ue", 'o': "uo", 'r': "er",
		},
	},
}

// DoublePinyinParser wraps a PinyinParser, translating 2-key codes to Full
// Pinyin syllables through a scheme table before falling back to the
// wrapped Full-Pinyin DP for anything the scheme doesn't map.
type DoublePinyinParser struct {
	full   *PinyinParser
	scheme SchemeTable
}

const doublePinyinMaxLen = 3

// NewDoublePinyinParser constructs a parser for the named scheme, falling
// back to Full-Pinyin parsing (via full) for unmapped 2-grams.
func NewDoublePinyinParser(full *PinyinParser, scheme DoublePinyinScheme) *DoublePinyinParser {
	return &DoublePinyinParser{full: full, scheme: doublePinyinSchemes[scheme]}
}

// SegmentTopK implements Parser.
func (p *DoublePinyinParser) SegmentTopK(input string, k int, allowFuzzy bool) []Segmentation {
	return segmentTopK(input, k, allowFuzzy, doublePinyinMaxLen, pinyinSeparator, p.parseOneKey, p.full.opts.UnknownPenalty)
}

func (p *DoublePinyinParser) parseOneKey(substr string, allowFuzzy bool) []match {
	if len(substr) == 2 {
		initial, hasInitial := p.scheme.Initials[substr[0]]
		final, hasFinal := p.scheme.Finals[substr[1]]
		if hasInitial && hasFinal {
			full := initial + final
			if p.full.alphabet.Exact(full) {
				return []match{{Token: Token{Text: full}, Distance: 0}}
			}
		}
	}
	return p.full.parseOneKey(substr, allowFuzzy)
}
