package domain

import "strings"

// Campaign is a promotional campaign record produced by the external
// collection pipeline. It is consumed read-only by the chunker.
type Campaign struct {
	// ID is the unique campaign identifier.
	ID string `json:"campaign_id" yaml:"campaign_id"`

	// Title is the campaign headline.
	Title string `json:"title" yaml:"title"`

	// Description is the short campaign summary.
	Description string `json:"description" yaml:"description"`

	// Terms holds the participation conditions, if published.
	Terms string `json:"terms,omitempty" yaml:"terms,omitempty"`

	// Benefits lists what the customer gains, if published.
	Benefits string `json:"benefits,omitempty" yaml:"benefits,omitempty"`

	// CleanedText is the extracted full-text body of the campaign page.
	CleanedText string `json:"cleaned_text,omitempty" yaml:"cleaned_text,omitempty"`

	// URL is the page the campaign was collected from.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// IsEmpty reports whether the campaign carries no indexable text.
func (c Campaign) IsEmpty() bool {
	return strings.TrimSpace(c.Title) == "" &&
		strings.TrimSpace(c.Description) == "" &&
		strings.TrimSpace(c.CleanedText) == ""
}

// CampaignFeed is the summary document written next to per-campaign files.
type CampaignFeed struct {
	Campaigns []Campaign `json:"campaigns" yaml:"campaigns"`
}
