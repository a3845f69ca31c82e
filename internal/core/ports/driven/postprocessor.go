package driven

import "github.com/custodia-labs/campaign-rag/internal/core/domain"

// Chunker splits a campaign into retrieval units.
// Implementations never fail: an empty campaign yields no chunks.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// ChunkCampaign applies the default campaign strategy.
	ChunkCampaign(campaign domain.Campaign) []domain.Chunk

	// ChunkWith applies the given strategy, falling back to the default
	// strategy when it yields no chunks.
	ChunkWith(campaign domain.Campaign, strategy domain.ChunkingStrategy) []domain.Chunk
}

// QueryNormaliser bridges orthographic mismatches between queries and text.
// Implementations must be pure: no index or network access.
type QueryNormaliser interface {
	// Variations returns the lexical variation set of a term.
	Variations(term string) []string

	// Preprocess applies dictionary substitution and canonicalisation rules.
	// Returns the query unchanged when no rule fires.
	Preprocess(query string) string

	// Expand returns every variation the retriever should match for a query.
	Expand(query string) []string
}
