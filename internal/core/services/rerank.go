package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// Keyword search weights.
const (
	keywordOverlapWeight  = 0.3
	keywordVariationBonus = 0.4
	keywordTitleBonus     = 0.5
	keywordIDBonus        = 0.7
)

// noTierCeiling caps candidates that match no tier, below every band.
const noTierCeiling = 0.45

// minSemanticScale keeps the semantic normalisation from exploding on tiny thresholds.
const minSemanticScale = 10.0

// QueryTerms is one form of the query (raw or preprocessed) prepared for matching.
type QueryTerms struct {
	// Phrase is the lowercased, whitespace-collapsed query.
	Phrase string

	// Words are the distinct lowercased query words.
	Words []string
}

// CandidateFields are the lowercased fields of a chunk used for matching.
type CandidateFields struct {
	ID    string
	Title string
	Text  string

	idWords    map[string]struct{}
	titleWords map[string]struct{}
	textWords  map[string]struct{}
}

// TierRule clamps the score of candidates matching Match into [Floor, Ceiling].
type TierRule struct {
	Name    string
	Floor   float64
	Ceiling float64
	Match   func(q QueryTerms, c CandidateFields) bool
}

// DefaultTiers returns the exact-match tiers, strongest first. Bands do not
// overlap, so a stronger tier always outranks a weaker one.
func DefaultTiers() []TierRule {
	return []TierRule{
		{Name: "exact_id", Floor: 0.95, Ceiling: 0.99, Match: func(q QueryTerms, c CandidateFields) bool {
			return strings.Contains(c.ID, q.Phrase)
		}},
		{Name: "exact_title", Floor: 0.90, Ceiling: 0.945, Match: func(q QueryTerms, c CandidateFields) bool {
			return strings.Contains(c.Title, q.Phrase)
		}},
		{Name: "exact_text", Floor: 0.85, Ceiling: 0.895, Match: func(q QueryTerms, c CandidateFields) bool {
			return strings.Contains(c.Text, q.Phrase)
		}},
		{Name: "words70_id", Floor: 0.80, Ceiling: 0.845, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.idWords) >= 0.7
		}},
		{Name: "words70_title", Floor: 0.75, Ceiling: 0.795, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.titleWords) >= 0.7
		}},
		{Name: "words50_id", Floor: 0.70, Ceiling: 0.745, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.idWords) >= 0.5
		}},
		{Name: "words50_title", Floor: 0.65, Ceiling: 0.695, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.titleWords) >= 0.5
		}},
		{Name: "any_word_title", Floor: 0.55, Ceiling: 0.645, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.titleWords) > 0
		}},
		{Name: "any_word_id", Floor: 0.50, Ceiling: 0.545, Match: func(q QueryTerms, c CandidateFields) bool {
			return wordShare(q.Words, c.idWords) > 0
		}},
	}
}

// rerankQuery is everything about a query the policy needs, computed once.
type rerankQuery struct {
	raw        QueryTerms
	processed  QueryTerms
	variations []string
}

// RerankPolicy scores candidates: a semantic and lexical blend placed into
// the band of the strongest matching tier, plus variation bonuses.
type RerankPolicy struct {
	scoring domain.ScoringSettings
	tiers   []TierRule
}

// NewRerankPolicy creates a policy. No tiers selects DefaultTiers.
func NewRerankPolicy(scoring domain.ScoringSettings, tiers ...TierRule) *RerankPolicy {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &RerankPolicy{scoring: scoring, tiers: tiers}
}

// tier returns the strongest tier matched by either query form.
func (p *RerankPolicy) tier(q rerankQuery, c CandidateFields) (TierRule, bool) {
	for _, tier := range p.tiers {
		if tier.Match(q.raw, c) || (q.processed.Phrase != "" && tier.Match(q.processed, c)) {
			return tier, true
		}
	}
	return TierRule{}, false
}

// Score returns the rerank score of a candidate. threshold scales the
// semantic similarity; hybrid adds the hybrid title and id bonuses.
func (p *RerankPolicy) Score(r domain.SearchResult, q rerankQuery, threshold float64, hybrid bool) float64 {
	s := p.scoring
	c := newCandidateFields(r.Chunk)

	base := s.SemanticWeight*semanticSimilarity(r.Distance, threshold) +
		s.OverlapWeight*math.Max(wordShare(q.raw.Words, c.textWords), wordShare(q.processed.Words, c.textWords))
	if r.Chunk.Type == domain.ChunkTypeTitleDescription {
		base += s.TitleDescriptionBonus
	}

	floor, ceiling := 0.0, noTierCeiling
	if tier, ok := p.tier(q, c); ok {
		floor, ceiling = tier.Floor, tier.Ceiling
	}
	score := floor + (ceiling-floor)*clamp01(base/p.maxBase())

	anywhere, inTitle, inID := variationHits(q.variations, c)
	if anywhere {
		score += s.VariationBonus
	}
	if inTitle {
		score += s.VariationTitleBonus
	}
	if inID {
		score += s.VariationIDBonus
	}
	if hybrid {
		if inTitle {
			score += s.HybridTitleBonus
		}
		if inID {
			score += s.HybridIDBonus
		}
	}

	return math.Min(math.Min(score, ceiling), s.MaxScore)
}

// KeywordScore returns the lexical score of a candidate and whether it
// qualifies (any word overlap or variation hit).
func (p *RerankPolicy) KeywordScore(q rerankQuery, c CandidateFields) (float64, bool) {
	ratio := math.Max(wordShare(q.raw.Words, c.textWords), wordShare(q.processed.Words, c.textWords))
	anywhere, inTitle, inID := variationHits(q.variations, c)
	if ratio == 0 && !anywhere {
		return 0, false
	}

	score := ratio * keywordOverlapWeight
	if anywhere {
		score += keywordVariationBonus
	}
	if inTitle {
		score += keywordTitleBonus
	}
	if inID {
		score += keywordIDBonus
	}
	return score, true
}

func (p *RerankPolicy) maxBase() float64 {
	m := p.scoring.SemanticWeight + p.scoring.OverlapWeight + p.scoring.TitleDescriptionBonus
	if m <= 0 {
		return 1
	}
	return m
}

func newQueryTerms(query string) QueryTerms {
	words := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(words))
	distinct := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		distinct = append(distinct, w)
	}
	return QueryTerms{Phrase: strings.Join(words, " "), Words: distinct}
}

func newCandidateFields(chunk domain.Chunk) CandidateFields {
	c := CandidateFields{
		ID:    strings.ToLower(chunk.CampaignID),
		Title: strings.ToLower(chunk.Title),
		Text:  strings.ToLower(chunk.Text),
	}
	c.idWords = tokenSet(c.ID)
	c.titleWords = tokenSet(c.Title)
	c.textWords = wordSet(c.Text)
	return c
}

// wordSet splits on whitespace, the way query words are split.
func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// tokenSet splits on any non-alphanumeric rune, so ids like "auto-king-2"
// and punctuated titles yield their words.
func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

func wordShare(words []string, set map[string]struct{}) float64 {
	if len(words) == 0 || len(set) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

func variationHits(variations []string, c CandidateFields) (anywhere, inTitle, inID bool) {
	full := c.Text + " " + c.Title + " " + c.ID
	for _, v := range variations {
		v = strings.ToLower(v)
		if strings.Contains(full, v) {
			anywhere = true
		}
		if strings.Contains(c.Title, v) {
			inTitle = true
		}
		if strings.Contains(c.ID, v) {
			inID = true
		}
		if anywhere && inTitle && inID {
			break
		}
	}
	return anywhere, inTitle, inID
}

func semanticSimilarity(distance *float64, threshold float64) float64 {
	if distance == nil {
		return 0
	}
	return clamp01(1 - *distance/math.Max(threshold, minSemanticScale))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
