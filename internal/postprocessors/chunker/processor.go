// Package chunker splits campaign records into retrieval chunks.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default number of overlapping words between windows.
const DefaultChunkOverlap = 50

// minBodyLength is the trimmed body length (in characters) above which the
// body text is chunked in addition to the title passage.
const minBodyLength = 50

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n`)

// Processor splits campaigns into title, paragraph and sliding-window chunks.
// It implements the Chunker interface.
type Processor struct {
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between sliding windows in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithIDGenerator replaces the chunk ID generator (UUIDs by default).
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "campaign-chunker"
}

// ChunkSize returns the configured chunk size in words.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured window overlap in words.
func (p *Processor) Overlap() int {
	return p.overlap
}

// ChunkCampaign emits the title/description passage followed by the body
// chunks. Body text is grouped by paragraph; text without paragraph breaks
// that exceeds the chunk size is split into sliding windows instead.
func (p *Processor) ChunkCampaign(c domain.Campaign) []domain.Chunk {
	title := strings.TrimSpace(c.Title)
	var chunks []domain.Chunk

	if passage := titlePassage(c); passage != "" {
		chunks = append(chunks, p.newChunk(c, passage, 0, domain.ChunkTypeTitleDescription))
	}

	body := strings.TrimSpace(c.CleanedText)
	if utf8.RuneCountInString(body) > minBodyLength {
		bodyChunks := p.SemanticChunk(c.ID, body)
		if len(bodyChunks) == 1 && len(strings.Fields(body)) > p.chunkSize {
			bodyChunks = p.SlidingWindowChunk(c.ID, body)
		}
		chunks = p.appendBody(chunks, bodyChunks, title)
	}

	if len(chunks) == 0 {
		return p.fallback(c)
	}
	return chunks
}

// ChunkWith splits the campaign body with the given strategy. Semantic and
// sliding-window strategies only chunk the body text; when that yields
// nothing the default campaign strategy is used.
func (p *Processor) ChunkWith(c domain.Campaign, strategy domain.ChunkingStrategy) []domain.Chunk {
	body := strings.TrimSpace(c.CleanedText)

	var bodyChunks []domain.Chunk
	switch strategy {
	case domain.ChunkingSemantic:
		bodyChunks = p.SemanticChunk(c.ID, body)
	case domain.ChunkingSlidingWindow:
		bodyChunks = p.SlidingWindowChunk(c.ID, body)
	default:
		return p.ChunkCampaign(c)
	}

	chunks := p.appendBody(nil, bodyChunks, strings.TrimSpace(c.Title))
	if len(chunks) == 0 {
		return p.ChunkCampaign(c)
	}
	return chunks
}

// SemanticChunk groups blank-line separated paragraphs while the running
// word count stays within the chunk size.
func (p *Processor) SemanticChunk(campaignID, text string) []domain.Chunk {
	var chunks []domain.Chunk
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			CampaignID: campaignID,
			Text:       strings.Join(current, "\n\n"),
			Index:      len(chunks),
			Type:       domain.ChunkTypeSemantic,
		})
	}

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := len(strings.Fields(para))
		if currentWords+words > p.chunkSize && len(current) > 0 {
			flush()
			current = []string{para}
			currentWords = words
			continue
		}
		current = append(current, para)
		currentWords += words
	}
	flush()

	return chunks
}

// SlidingWindowChunk splits text into windows of chunkSize words advancing
// by chunkSize-overlap words, until the window start passes the last word.
func (p *Processor) SlidingWindowChunk(campaignID, text string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(words)/stride+1)

	for start := 0; start < len(words); start += stride {
		end := start + p.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, domain.Chunk{
			CampaignID: campaignID,
			Text:       strings.Join(words[start:end], " "),
			Index:      len(chunks),
			Type:       domain.ChunkTypeSlidingWindow,
			StartWord:  start,
			EndWord:    end,
		})
	}

	return chunks
}

// appendBody prefixes body chunks with the title when missing, assigns IDs
// and continues chunk indices after the chunks already emitted.
func (p *Processor) appendBody(chunks, body []domain.Chunk, title string) []domain.Chunk {
	for _, chunk := range body {
		if title != "" && !strings.Contains(chunk.Text, title) {
			chunk.Text = title + "\n\n" + chunk.Text
		}
		chunk.ID = p.newID()
		chunk.Title = title
		chunk.Index = len(chunks)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// fallback guarantees one chunk for any campaign with text: the title
// passage, or the short body when title and description are both empty.
func (p *Processor) fallback(c domain.Campaign) []domain.Chunk {
	passage := titlePassage(c)
	if passage == "" {
		passage = strings.TrimSpace(c.CleanedText)
	}
	if passage == "" {
		return nil
	}
	return []domain.Chunk{p.newChunk(c, passage, 0, domain.ChunkTypeFallback)}
}

func (p *Processor) newChunk(c domain.Campaign, text string, index int, typ domain.ChunkType) domain.Chunk {
	return domain.Chunk{
		ID:         p.newID(),
		CampaignID: c.ID,
		Title:      strings.TrimSpace(c.Title),
		Text:       text,
		Index:      index,
		Type:       typ,
	}
}

func titlePassage(c domain.Campaign) string {
	title := strings.TrimSpace(c.Title)
	description := strings.TrimSpace(c.Description)
	if title == "" && description == "" {
		return ""
	}
	return strings.TrimSpace(title + "\n\n" + description)
}
