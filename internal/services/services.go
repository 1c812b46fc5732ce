package services

import (
	"context"

	"github.com/desertthunder/cratedig/internal/models"
)

// SearchPage is one page of playlist search results.
type SearchPage struct {
	Items []models.Candidate // candidates in catalog order
	Total int                // total results reported upstream
}

// TrackPage is one page of a playlist's track list.
type TrackPage struct {
	Items []models.SampledTrack
	Total int  // total tracks in the playlist
	Next  bool // whether another page exists
}

// Catalog defines the playlist catalog operations the discovery pipeline
// consumes: paginated free-text search, single playlist metadata, and
// paginated track listing.
type Catalog interface {
	Name() string
	SearchPlaylists(ctx context.Context, query string, limit, offset int) (*SearchPage, error)
	Playlist(ctx context.Context, playlistID string) (*models.PlaylistDetail, error)
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error)
}

// Message is a single chat message sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseSchema constrains a completion to a named JSON schema.
type ResponseSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	Model          string
	Messages       []Message
	ResponseSchema *ResponseSchema
	Temperature    float64
	MaxTokens      int
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the provider's answer to a [CompletionRequest].
type CompletionResponse struct {
	Content   string
	Usage     Usage
	LatencyMS int64
	Model     string
	Provider  string
}

// Completer defines the LLM collaborator consumed by selection and
// summarization.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	DefaultModel() string
}
