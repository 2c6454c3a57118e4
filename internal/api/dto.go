package api

import (
	"github.com/starford/vaultkit/internal/index"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// TagsResponse wraps ledger tag counts.
type TagsResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}

// NormalizeResponse is the canonical form of one tag.
type NormalizeResponse struct {
	Input string `json:"input" example:"#Business-Strategy" validate:"required"`
	Tag   string `json:"tag" example:"business/strategy" validate:"required"`
}

// SuggestionsResponse wraps stored link suggestions.
type SuggestionsResponse struct {
	Suggestions []index.SuggestionRow `json:"suggestions" validate:"required"`
}

// OrphansResponse wraps orphaned notes.
type OrphansResponse struct {
	Orphans []links.Orphan `json:"orphans" validate:"required"`
}

// RunsResponse wraps recorded tool runs.
type RunsResponse struct {
	Runs []index.RunRow `json:"runs" validate:"required"`
}
