package filesystem

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

// Minimum field lengths a campaign must meet to pass Validate.
const (
	MinTitleLength       = 3
	MinDescriptionLength = 10
)

// Validate reports whether a campaign carries the fields indexing relies on.
func Validate(c domain.Campaign) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: campaign id is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Title)) < MinTitleLength {
		return fmt.Errorf("%w: title shorter than %d characters", domain.ErrInvalidInput, MinTitleLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Description)) < MinDescriptionLength {
		return fmt.Errorf("%w: description shorter than %d characters", domain.ErrInvalidInput, MinDescriptionLength)
	}
	return nil
}

// Clean collapses whitespace runs in every text field.
func Clean(c domain.Campaign) domain.Campaign {
	c.ID = strings.TrimSpace(c.ID)
	c.Title = cleanText(c.Title)
	c.Description = cleanText(c.Description)
	c.Terms = cleanText(c.Terms)
	c.Benefits = cleanText(c.Benefits)
	c.CleanedText = cleanText(c.CleanedText)
	c.URL = strings.TrimSpace(c.URL)
	return c
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
