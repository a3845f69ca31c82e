package domain

import "strconv"

// ChunkType identifies how a chunk was derived from its campaign.
type ChunkType string

// Available chunk types.
const (
	// ChunkTypeTitleDescription is the "title + description" passage.
	ChunkTypeTitleDescription ChunkType = "title_description"

	// ChunkTypeSemantic groups whole paragraphs of the body text.
	ChunkTypeSemantic ChunkType = "semantic"

	// ChunkTypeSlidingWindow is a fixed-size word window of the body text.
	ChunkTypeSlidingWindow ChunkType = "sliding_window"

	// ChunkTypeFallback is emitted when no other path produced a chunk.
	ChunkTypeFallback ChunkType = "fallback"
)

// IsValid returns true if the chunk type is recognised.
func (t ChunkType) IsValid() bool {
	switch t {
	case ChunkTypeTitleDescription, ChunkTypeSemantic, ChunkTypeSlidingWindow, ChunkTypeFallback:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ChunkType) String() string {
	return string(t)
}

// ChunkingStrategy selects how campaign body text is split.
type ChunkingStrategy string

// Available chunking strategies.
const (
	// ChunkingCampaign is the default: title/description passage plus
	// paragraph grouping, degrading to sliding windows for unbroken text.
	ChunkingCampaign ChunkingStrategy = "campaign"

	// ChunkingSemantic splits the body on paragraph boundaries only.
	ChunkingSemantic ChunkingStrategy = "semantic"

	// ChunkingSlidingWindow splits the body into overlapping word windows.
	ChunkingSlidingWindow ChunkingStrategy = "sliding_window"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case ChunkingCampaign, ChunkingSemantic, ChunkingSlidingWindow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkingStrategy) String() string {
	return string(s)
}

// Chunk is a retrieval unit derived from exactly one Campaign.
// Chunks are created once per indexing run and never mutated.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string `json:"id"`

	// CampaignID links back to the source Campaign.
	CampaignID string `json:"campaign_id"`

	// Title is a denormalised copy of the campaign title used for scoring.
	Title string `json:"title,omitempty"`

	// Text is the indexable string.
	Text string `json:"text"`

	// Index is the 0-based position within the campaign's chunk sequence.
	Index int `json:"chunk_index"`

	// Type records which chunking path produced the chunk.
	Type ChunkType `json:"type"`

	// StartWord and EndWord bound sliding-window chunks in the body's word
	// sequence. Both are zero for other chunk types.
	StartWord int `json:"start_word,omitempty"`
	EndWord   int `json:"end_word,omitempty"`
}

// Key returns the (campaign_id, chunk_index) identity used for deduplication.
func (c Chunk) Key() string {
	return c.CampaignID + "_" + strconv.Itoa(c.Index)
}
