// Package query expands search queries into the lexical variations the
// retriever matches against chunk ids, titles and text.
package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.QueryNormaliser = (*Normaliser)(nil)

// minVariationLength is the rune count a variation must exceed to be matched.
const minVariationLength = 2

// Rule is a canonicalisation rewrite applied to queries.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultDictionary maps Turkish commerce terms to their English form.
func DefaultDictionary() map[string]string {
	return map[string]string{
		"oto":          "auto",
		"otomobil":     "automobile",
		"kredi":        "credit",
		"kampanya":     "campaign",
		"kampanyası":   "campaign",
		"kampanyaları": "campaigns",
	}
}

// RE2 word classes are ASCII only, so boundaries are spelled out with
// unicode classes and kept in the replacement through their groups.
const (
	wordClass    = `[\p{L}\p{N}_]`
	openBoundary = `(^|[^\p{L}\p{N}_])`
	endBoundary  = `([^\p{L}\p{N}_]|$)`
)

// DefaultRules returns the canonicalisation rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: regexp.MustCompile(`(?i)` + openBoundary + `oto` + endBoundary), Replacement: "${1}auto${2}"},
		{Pattern: regexp.MustCompile(`(?i)` + openBoundary + `auto[-_]?king` + endBoundary), Replacement: "${1}auto king${2}"},
		{Pattern: regexp.MustCompile(`(` + wordClass + `)[-_](` + wordClass + `)`), Replacement: "$1 $2"},
	}
}

var separators = regexp.MustCompile(`[-_\s]+`)

// Normaliser builds query variations and applies dictionary and rule
// rewrites. It holds no mutable state and is safe for concurrent use.
type Normaliser struct {
	dictionary map[string]string
	rules      []Rule
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithDictionary replaces the substitution dictionary. Keys are lowercase words.
func WithDictionary(dict map[string]string) Option {
	return func(n *Normaliser) {
		n.dictionary = dict
	}
}

// WithRules replaces the canonicalisation rules.
func WithRules(rules []Rule) Option {
	return func(n *Normaliser) {
		n.rules = rules
	}
}

// New creates a normaliser with the default dictionary and rules.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{
		dictionary: DefaultDictionary(),
		rules:      DefaultRules(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lowercases a term and collapses separators and whitespace
// into single spaces.
func Normalize(term string) string {
	return strings.TrimSpace(separators.ReplaceAllString(strings.ToLower(term), " "))
}

// Variations returns the sorted set of lexical variations of term.
func (n *Normaliser) Variations(term string) []string {
	lower := strings.ToLower(strings.TrimSpace(term))
	if lower == "" {
		return nil
	}

	set := map[string]struct{}{}
	add := func(v string) {
		if v != "" {
			set[v] = struct{}{}
		}
	}

	add(lower)
	add(strings.TrimSpace(term))
	add(strings.ReplaceAll(lower, " ", "-"))
	add(strings.ReplaceAll(lower, " ", "_"))
	add(strings.ReplaceAll(lower, "-", " "))
	add(strings.ReplaceAll(lower, "_", " "))
	add(strings.ReplaceAll(lower, " ", ""))

	if words := strings.Fields(lower); len(words) > 1 {
		add(strings.Join(words, ""))
		add(strings.Join(words, "-"))
		add(strings.Join(words, "_"))

		capitalised := make([]string, len(words))
		for i, w := range words {
			capitalised[i] = capitalise(w)
		}
		add(strings.Join(capitalised, " "))
		add(strings.Join(capitalised, ""))
	}

	return sortedKeys(set)
}

// Preprocess substitutes the first dictionary word found in the query,
// then applies the first rule matching the lowercased query.
func (n *Normaliser) Preprocess(query string) string {
	lower := strings.ToLower(query)
	processed := query

	for _, word := range words(lower) {
		if repl, ok := n.dictionary[word]; ok {
			processed = replaceWord(lower, word, repl)
			break
		}
	}

	for _, rule := range n.rules {
		if rule.Pattern.MatchString(lower) {
			processed = rule.Pattern.ReplaceAllString(processed, rule.Replacement)
			break
		}
	}

	processed = strings.TrimSpace(processed)
	if !strings.EqualFold(processed, strings.TrimSpace(query)) {
		logger.Debug("Query expanded: %q -> %q", query, processed)
	}
	return processed
}

// Expand returns the variations of the query, of its preprocessed form,
// and of every word of either longer than two characters (each word also
// preprocessed on its own). Variations of two characters or fewer are dropped.
func (n *Normaliser) Expand(query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	set := map[string]struct{}{}
	add := func(vs []string) {
		for _, v := range vs {
			if utf8.RuneCountInString(v) > minVariationLength {
				set[v] = struct{}{}
			}
		}
	}

	for _, form := range []string{query, n.Preprocess(query)} {
		add(n.Variations(form))
		for _, w := range strings.Fields(Normalize(form)) {
			if utf8.RuneCountInString(w) > minVariationLength {
				add(n.Variations(w))
				if p := n.Preprocess(w); p != w {
					add(n.Variations(p))
				}
			}
		}
	}

	return sortedKeys(set)
}

func capitalise(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// words splits s into unicode word tokens.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) })
}

// replaceWord replaces whole-word occurrences of word in s.
func replaceWord(s, word, repl string) string {
	var b strings.Builder
	for len(s) > 0 {
		end := 0
		r, _ := utf8.DecodeRuneInString(s)
		inWord := isWordRune(r)
		for end < len(s) {
			r, size := utf8.DecodeRuneInString(s[end:])
			if isWordRune(r) != inWord {
				break
			}
			end += size
		}
		token := s[:end]
		if inWord && token == word {
			token = repl
		}
		b.WriteString(token)
		s = s[end:]
	}
	return b.String()
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
