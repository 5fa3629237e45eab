package generator

import (
	"time"

	"auto_content_syndicator/strategy"
)

// Brief describes the source material a strategy is generated from.
type Brief struct {
	Topic         string   `json:"topic"`
	SourceContent string   `json:"sourceContent"`
	Author        string   `json:"author,omitempty"`
	Audience      string   `json:"audience,omitempty"`
	Goals         []string `json:"goals,omitempty"`
	Constraints   []string `json:"constraints,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
}

// Turn records one generation or comment-driven revision.
type Turn struct {
	Comment   string                    `json:"comment"`
	Strategy  *strategy.ContentStrategy `json:"strategy"`
	Summary   string                    `json:"summary"`
	CreatedAt time.Time                 `json:"createdAt"`
}
