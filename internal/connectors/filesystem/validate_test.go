package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
)

func TestValidate(t *testing.T) {
	valid := domain.Campaign{ID: "1", Title: "Auto King", Description: "Special car loan campaign"}

	tests := []struct {
		name    string
		mutate  func(c *domain.Campaign)
		wantErr bool
	}{
		{"valid", func(*domain.Campaign) {}, false},
		{"missing id", func(c *domain.Campaign) { c.ID = "  " }, true},
		{"short title", func(c *domain.Campaign) { c.Title = " AK " }, true},
		{"title of three runes", func(c *domain.Campaign) { c.Title = "Çığ" }, false},
		{"short description", func(c *domain.Campaign) { c.Description = "too short" }, true},
		{"description of ten", func(c *domain.Campaign) { c.Description = "0123456789" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := Validate(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClean(t *testing.T) {
	c := Clean(domain.Campaign{
		ID:          " 7 ",
		Title:       "\tFuel \n Discount ",
		Description: "Save\n\n\non fuel",
		Terms:       "  ",
		Benefits:    "Up to   10%",
		CleanedText: "line one\r\nline two",
		URL:         " https://example.com ",
	})

	assert.Equal(t, domain.Campaign{
		ID:          "7",
		Title:       "Fuel Discount",
		Description: "Save on fuel",
		Terms:       "",
		Benefits:    "Up to 10%",
		CleanedText: "line one line two",
		URL:         "https://example.com",
	}, c)
}
