package models

import "time"

// Bounds and defaults for discovery query parameters. Out-of-range inputs are
// clamped, never rejected.
const (
	MinPlaylistLimit     = 1
	MaxPlaylistLimit     = 200
	DefaultPlaylistLimit = 40

	MinTrackSampleSize     = 10
	MaxTrackSampleSize     = 100
	DefaultTrackSampleSize = 30

	MinRenderLimit     = 1
	MaxRenderLimit     = 50
	DefaultRenderLimit = 10
)

// DiscoveryQuery is a natural-language playlist request with tuning knobs.
type DiscoveryQuery struct {
	Text            string `json:"query"`
	Model           string `json:"model,omitempty"`
	PlaylistLimit   int    `json:"playlistLimit,omitempty"`
	TrackSampleSize int    `json:"trackSampleSize,omitempty"`
	RenderLimit     int    `json:"renderLimit,omitempty"`
}

// Clamp applies defaults for zero values and forces every knob into its
// documented range. Returns the query for chaining.
func (q DiscoveryQuery) Clamp() DiscoveryQuery {
	q.PlaylistLimit = clamp(q.PlaylistLimit, MinPlaylistLimit, MaxPlaylistLimit, DefaultPlaylistLimit)
	q.TrackSampleSize = clamp(q.TrackSampleSize, MinTrackSampleSize, MaxTrackSampleSize, DefaultTrackSampleSize)
	q.RenderLimit = clamp(q.RenderLimit, MinRenderLimit, MaxRenderLimit, DefaultRenderLimit)
	return q
}

func clamp(v, min, max, def int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Candidate is a playlist returned by catalog search, not yet analyzed.
// Candidates live only for the duration of one request.
type Candidate struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Owner         string   `json:"owner"`
	TrackCount    int      `json:"trackCount"`
	FollowerCount int      `json:"followerCount"`
	Public        bool     `json:"isPublic"`
	Images        []string `json:"images,omitempty"`
}

// Selection is the LLM-narrowed subset of candidates chosen for deep analysis.
type Selection struct {
	SelectedIDs []string `json:"selectedPlaylistIds"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// SampledTrack is one track drawn from a playlist during detail fetching.
type SampledTrack struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Album   string `json:"album,omitempty"`
	AddedAt string `json:"addedAt,omitempty"`
}

// PlaylistDetail is full metadata plus a track sample and the unique artist
// set for one playlist. Query-independent, shared across users; cached 24h.
type PlaylistDetail struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Owner         string         `json:"owner"`
	Description   string         `json:"description"`
	FollowerCount int            `json:"followerCount"`
	TrackCount    int            `json:"trackCount"`
	SampledTracks []SampledTrack `json:"sampledTracks"`
	UniqueArtists []string       `json:"uniqueArtists"`
	Images        []string       `json:"images,omitempty"`
}

// Alignment levels for Summary, strongest to weakest.
const (
	AlignmentStrong     = "strong"
	AlignmentModerate   = "moderate"
	AlignmentWeak       = "weak"
	AlignmentTangential = "tangential"
)

// Characteristics are structured attributes the model infers for a playlist.
type Characteristics struct {
	PrimaryGenre    string   `json:"primaryGenre,omitempty"`
	Mood            string   `json:"mood,omitempty"`
	Instrumentation []string `json:"instrumentation,omitempty"`
	Tempo           string   `json:"tempo,omitempty"`
	DecadeRange     string   `json:"decadeRange,omitempty"`
}

// Summary is the LLM match analysis for one playlist against one query.
// Query-dependent; cached 7 days keyed by (playlist id, query hash).
type Summary struct {
	PlaylistID      string          `json:"playlistId"`
	SummaryText     string          `json:"summary"`
	AlignmentLevel  string          `json:"alignmentLevel"`
	Characteristics Characteristics `json:"characteristics"`
	MatchScore      float64         `json:"matchScore"`
	Reasoning       string          `json:"reasoning,omitempty"`
}

// RankedPlaylist merges PlaylistDetail and Summary for the final payload.
type RankedPlaylist struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Owner           string          `json:"owner"`
	Description     string          `json:"description"`
	Followers       int             `json:"followers"`
	TrackCount      int             `json:"trackCount"`
	Images          []string        `json:"images,omitempty"`
	UniqueArtists   []string        `json:"uniqueArtists"`
	SummaryText     string          `json:"summary"`
	AlignmentLevel  string          `json:"alignmentLevel"`
	Characteristics Characteristics `json:"characteristics"`
	MatchScore      float64         `json:"matchScore"`
	Reasoning       string          `json:"reasoning,omitempty"`
}

// Merge combines a detail and its summary into one ranked entry.
func Merge(d PlaylistDetail, s Summary) RankedPlaylist {
	return RankedPlaylist{
		ID:              d.ID,
		Name:            d.Name,
		Owner:           d.Owner,
		Description:     d.Description,
		Followers:       d.FollowerCount,
		TrackCount:      d.TrackCount,
		Images:          d.Images,
		UniqueArtists:   d.UniqueArtists,
		SummaryText:     s.SummaryText,
		AlignmentLevel:  s.AlignmentLevel,
		Characteristics: s.Characteristics,
		MatchScore:      s.MatchScore,
		Reasoning:       s.Reasoning,
	}
}

// FinalResult is the complete response for one discovery request, sorted by
// match score descending. Persisted 30 days keyed by the search hash.
type FinalResult struct {
	Query              string           `json:"query"`
	Playlists          []RankedPlaylist `json:"playlists"`
	TotalSearchResults int              `json:"totalSearchResults"`
	SelectedCount      int              `json:"selectedCount"`
	FinalCount         int              `json:"finalCount"`
	Message            string           `json:"message,omitempty"`
	Phases             []string         `json:"phases,omitempty"`
}

// HistoryRecord is one entry of a user's capped search history index.
type HistoryRecord struct {
	SearchHash  string    `json:"searchHash"`
	Query       string    `json:"query"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"resultCount"`
	Cached      bool      `json:"cached"`
}
