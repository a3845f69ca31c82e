package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// words builds a text of n distinct words.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.Overlap() >= p.ChunkSize() {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if got := New().Name(); got != "campaign-chunker" {
		t.Errorf("expected name 'campaign-chunker', got '%s'", got)
	}
}

func TestChunkCampaign_TitleDescriptionOnly(t *testing.T) {
	p := New()
	chunks := p.ChunkCampaign(domain.Campaign{
		ID:          "2",
		Title:       "Auto King",
		Description: "Special car loan campaign",
	})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Type != domain.ChunkTypeTitleDescription {
		t.Errorf("expected title_description chunk, got %s", c.Type)
	}
	if c.Text != "Auto King\n\nSpecial car loan campaign" {
		t.Errorf("unexpected text: %q", c.Text)
	}
	if c.Index != 0 || c.CampaignID != "2" || c.Title != "Auto King" {
		t.Errorf("unexpected chunk metadata: %+v", c)
	}
	if c.ID == "" {
		t.Error("expected chunk ID to be set")
	}
}

func TestChunkCampaign_SemanticParagraphs(t *testing.T) {
	p := New(WithChunkSize(300))
	body := words(200) + "\n\n" + words(200) + "\n\n" + words(50)

	chunks := p.ChunkCampaign(domain.Campaign{
		ID:          "c1",
		Title:       "Summer Deal",
		Description: "Discounts all summer long",
		CleanedText: body,
	})

	// title passage + [200] + [200, 50]
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.CampaignID != "c1" {
			t.Errorf("chunk %d has campaign id %q", i, c.CampaignID)
		}
	}
	for _, c := range chunks[1:] {
		if c.Type != domain.ChunkTypeSemantic {
			t.Errorf("expected semantic chunk, got %s", c.Type)
		}
		if !strings.HasPrefix(c.Text, "Summer Deal\n\n") {
			t.Errorf("expected title prefix, got %q", c.Text[:30])
		}
	}
	if !strings.Contains(chunks[2].Text, "\n\n") {
		t.Error("expected grouped paragraphs to be joined by a blank line")
	}
}

func TestChunkCampaign_TitleAlreadyInBody(t *testing.T) {
	p := New()
	chunks := p.ChunkCampaign(domain.Campaign{
		ID:          "c1",
		Title:       "Auto King",
		CleanedText: "Auto King offers low interest car loans for every new vehicle purchase this year.",
	})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if strings.Count(chunks[1].Text, "Auto King") != 1 {
		t.Errorf("title should not be prepended twice: %q", chunks[1].Text)
	}
}

func TestChunkCampaign_SlidingWindowForUnbrokenText(t *testing.T) {
	p := New(WithChunkSize(300), WithOverlap(50))
	chunks := p.ChunkCampaign(domain.Campaign{
		ID:          "c1",
		Title:       "Long",
		Description: "Very long terms",
		CleanedText: words(1000),
	})

	// title passage + ceil(1000 / 250) windows
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for _, c := range chunks[1:] {
		if c.Type != domain.ChunkTypeSlidingWindow {
			t.Errorf("expected sliding window chunk, got %s", c.Type)
		}
	}
	if chunks[1].StartWord != 0 || chunks[1].EndWord != 300 {
		t.Errorf("unexpected first window bounds: %d-%d", chunks[1].StartWord, chunks[1].EndWord)
	}
	if chunks[2].StartWord != 250 {
		t.Errorf("expected second window to start at 250, got %d", chunks[2].StartWord)
	}
}

func TestSlidingWindowChunk_Count(t *testing.T) {
	tests := []struct {
		n, size, overlap, want int
	}{
		{301, 300, 50, 2},
		{550, 300, 50, 3},
		{1000, 300, 50, 4},
		{1001, 300, 50, 5},
		{45, 10, 5, 9},
		{20, 10, 0, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			p := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			chunks := p.SlidingWindowChunk("c", words(tt.n))
			if len(chunks) != tt.want {
				t.Errorf("expected %d chunks, got %d", tt.want, len(chunks))
			}
			last := chunks[len(chunks)-1]
			if last.EndWord != tt.n {
				t.Errorf("expected last window to end at %d, got %d", tt.n, last.EndWord)
			}
		})
	}
}

func TestChunkCampaign_ShortBodyIgnoredWithTitle(t *testing.T) {
	p := New()
	chunks := p.ChunkCampaign(domain.Campaign{
		ID:          "c1",
		Title:       "Short",
		CleanedText: "too short to chunk",
	})

	if len(chunks) != 1 || chunks[0].Type != domain.ChunkTypeTitleDescription {
		t.Fatalf("expected only the title chunk, got %+v", chunks)
	}
}

func TestChunkCampaign_Empty(t *testing.T) {
	p := New()
	chunks := p.ChunkCampaign(domain.Campaign{ID: "empty"})
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty campaign, got %d", len(chunks))
	}

	chunks = p.ChunkCampaign(domain.Campaign{ID: "blank", Title: "  ", Description: "\n"})
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank campaign, got %d", len(chunks))
	}
}

func TestChunkCampaign_FallbackForShortBodyOnly(t *testing.T) {
	p := New()
	chunks := p.ChunkCampaign(domain.Campaign{ID: "c1", CleanedText: "Free coffee today"})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 fallback chunk, got %d", len(chunks))
	}
	if chunks[0].Type != domain.ChunkTypeFallback {
		t.Errorf("expected fallback chunk, got %s", chunks[0].Type)
	}
	if chunks[0].Text != "Free coffee today" {
		t.Errorf("unexpected fallback text: %q", chunks[0].Text)
	}
}

func TestChunkCampaign_AtLeastOneChunk(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(5))
	campaigns := []domain.Campaign{
		{ID: "a", Title: "Only title"},
		{ID: "b", Description: "Only description"},
		{ID: "c", CleanedText: words(80)},
		{ID: "d", Title: "T", Description: "D", CleanedText: words(30) + "\n\n" + words(30)},
	}

	for _, c := range campaigns {
		chunks := p.ChunkCampaign(c)
		if len(chunks) == 0 {
			t.Errorf("campaign %s produced no chunks", c.ID)
		}
		seen := make(map[int]bool)
		for _, chunk := range chunks {
			if chunk.CampaignID != c.ID {
				t.Errorf("campaign %s produced chunk for %s", c.ID, chunk.CampaignID)
			}
			if seen[chunk.Index] {
				t.Errorf("campaign %s has duplicate chunk index %d", c.ID, chunk.Index)
			}
			seen[chunk.Index] = true
		}
	}
}

func TestChunkWith(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(2))
	campaign := domain.Campaign{
		ID:          "c1",
		Title:       "Deal",
		Description: "A deal",
		CleanedText: words(25),
	}

	t.Run("sliding window only chunks the body", func(t *testing.T) {
		chunks := p.ChunkWith(campaign, domain.ChunkingSlidingWindow)
		if len(chunks) != 4 {
			t.Fatalf("expected 4 chunks, got %d", len(chunks))
		}
		for i, c := range chunks {
			if c.Type != domain.ChunkTypeSlidingWindow || c.Index != i {
				t.Errorf("unexpected chunk %d: %s/%d", i, c.Type, c.Index)
			}
		}
	})

	t.Run("semantic keeps a single paragraph", func(t *testing.T) {
		chunks := p.ChunkWith(campaign, domain.ChunkingSemantic)
		if len(chunks) != 1 || chunks[0].Type != domain.ChunkTypeSemantic {
			t.Fatalf("expected one semantic chunk, got %+v", chunks)
		}
	})

	t.Run("empty body falls back to default strategy", func(t *testing.T) {
		chunks := p.ChunkWith(domain.Campaign{ID: "c2", Title: "T", Description: "D"}, domain.ChunkingSemantic)
		if len(chunks) != 1 || chunks[0].Type != domain.ChunkTypeTitleDescription {
			t.Fatalf("expected default strategy fallback, got %+v", chunks)
		}
	})

	t.Run("default strategy", func(t *testing.T) {
		chunks := p.ChunkWith(campaign, domain.ChunkingCampaign)
		if chunks[0].Type != domain.ChunkTypeTitleDescription {
			t.Errorf("expected title chunk first, got %s", chunks[0].Type)
		}
	})
}

func TestWithIDGenerator(t *testing.T) {
	n := 0
	p := New(WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))

	chunks := p.ChunkCampaign(domain.Campaign{ID: "c", Title: "T", CleanedText: words(60)})
	if chunks[0].ID != "id-1" || chunks[1].ID != "id-2" {
		t.Errorf("unexpected ids: %s, %s", chunks[0].ID, chunks[1].ID)
	}
}
