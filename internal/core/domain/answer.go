package domain

// AnswerSource is a campaign cited by an answer.
type AnswerSource struct {
	CampaignID string  `json:"campaign_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// Answer is a composed response to a natural-language question.
type Answer struct {
	Question   string         `json:"question"`
	Text       string         `json:"answer"`
	Sources    []AnswerSource `json:"sources"`
	NumSources int            `json:"num_sources"`
}
