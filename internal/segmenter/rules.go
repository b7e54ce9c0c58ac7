package segmenter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// RuleSet is the serializable description of the segmentation tables.
// Empty fields fall back to the defaults.
type RuleSet struct {
	Terminators   string   `yaml:"terminators"`
	Trailing      string   `yaml:"trailing"`
	Quotes        string   `yaml:"quotes"`
	Brackets      []string `yaml:"brackets"` // Two-rune "()" style pairs
	Abbreviations []string `yaml:"abbreviations"`
}

// Default table contents
const (
	DefaultTerminators = ".!?…。？！"
	DefaultTrailing    = "\"')]}」』"
	DefaultQuotes      = "\"'"
)

// DefaultBrackets lists the open/close pairs tracked on the delimiter stack
var DefaultBrackets = []string{
	"()", "[]", "{}",
	"\u300a\u300b", // double angle
	"\u3008\u3009", // angle
	"\u2329\u232a", // angle (technical)
	"\u2039\u203a", // single guillemet
	"\u00ab\u00bb", // guillemet
	"\u300c\u300d", // corner
	"\u300e\u300f", // white corner
	"\u3014\u3015", // tortoise shell
	"\u3010\u3011", // lenticular
}

// DefaultAbbreviations are titles, months, weekdays and common short forms
var DefaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "sgt", "col", "gen",
	"rep", "sen", "gov", "lt", "maj", "capt", "st", "mt", "etc", "co",
	"inc", "ltd", "dept", "vs", "p", "pg", "jan", "feb", "mar", "apr",
	"jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec", "sun",
	"mon", "tu", "tue", "tues", "wed", "th", "thu", "thur", "thurs", "fri", "sat",
}

var (
	numberedLinePattern = regexp.MustCompile(`(?:^|\n)\p{Nd}+$`)
	initialsPattern     = regexp.MustCompile(`^(?:[A-Za-z]\.)+$`)
	possessivePattern   = regexp.MustCompile(`(?i)['’]s$`)
)

// Rules holds the immutable lookup tables used by the boundary scanner
type Rules struct {
	terminators   map[rune]struct{}
	trailing      map[rune]struct{}
	quotes        map[rune]struct{}
	openers       map[rune]struct{}
	closers       map[rune]rune // closing -> expected opening
	abbreviations map[string]struct{}
	fingerprint   string
}

// DefaultRules returns the English/CJK rule tables
func DefaultRules() *Rules {
	r, err := NewRules(RuleSet{})
	if err != nil {
		panic(err) // defaults are static
	}
	return r
}

// NewRules builds rule tables from a RuleSet
func NewRules(set RuleSet) (*Rules, error) {
	terminators := orDefault(set.Terminators, DefaultTerminators)
	trailing := orDefault(set.Trailing, DefaultTrailing)
	quotes := orDefault(set.Quotes, DefaultQuotes)

	brackets := set.Brackets
	if len(brackets) == 0 {
		brackets = DefaultBrackets
	}
	abbreviations := set.Abbreviations
	if len(abbreviations) == 0 {
		abbreviations = DefaultAbbreviations
	}

	r := &Rules{
		terminators:   runeSet(terminators),
		trailing:      runeSet(trailing),
		quotes:        runeSet(quotes),
		openers:       make(map[rune]struct{}, len(brackets)),
		closers:       make(map[rune]rune, len(brackets)),
		abbreviations: make(map[string]struct{}, len(abbreviations)),
	}

	for _, pair := range brackets {
		if utf8.RuneCountInString(pair) != 2 {
			return nil, fmt.Errorf("invalid bracket pair %q: must be exactly two characters", pair)
		}
		runes := []rune(pair)
		r.openers[runes[0]] = struct{}{}
		r.closers[runes[1]] = runes[0]
	}

	for _, abbr := range abbreviations {
		abbr = strings.ToLower(strings.TrimRight(strings.TrimSpace(abbr), "."))
		if abbr == "" {
			continue
		}
		r.abbreviations[abbr] = struct{}{}
	}

	abbrs := make([]string, 0, len(r.abbreviations))
	for abbr := range r.abbreviations {
		abbrs = append(abbrs, abbr)
	}
	slices.Sort(abbrs)
	canonical := fmt.Sprintf("terminators=%q\ntrailing=%q\nquotes=%q\nbrackets=%q\nabbreviations=%q\n",
		terminators, trailing, quotes, brackets, abbrs)
	sum := sha256.Sum256([]byte(canonical))
	r.fingerprint = hex.EncodeToString(sum[:])

	return r, nil
}

// Fingerprint identifies the rule tables. Rules with equal fingerprints
// split text identically.
func (r *Rules) Fingerprint() string {
	return r.fingerprint
}

// IsTerminator reports whether c ends a sentence. Newlines count only when
// includeNewlines is set.
func (r *Rules) IsTerminator(c rune, includeNewlines bool) bool {
	if c == '\n' {
		return includeNewlines
	}
	_, ok := r.terminators[c]
	return ok
}

// IsTrailing reports whether c is a closing quote or bracket that belongs to
// the sentence before it
func (r *Rules) IsTrailing(c rune) bool {
	_, ok := r.trailing[c]
	return ok
}

// IsAbbreviation reports whether token is a known abbreviation. A trailing
// possessive and trailing periods are ignored.
func (r *Rules) IsAbbreviation(token string) bool {
	token = possessivePattern.ReplaceAllString(token, "")
	token = strings.TrimRight(token, ".")
	_, ok := r.abbreviations[strings.ToLower(token)]
	return ok
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, c := range s {
		set[c] = struct{}{}
	}
	return set
}
