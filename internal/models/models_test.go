package models

import "testing"

func TestDiscoveryQueryClamp(t *testing.T) {
	cases := []struct {
		name string
		in   DiscoveryQuery
		want DiscoveryQuery
	}{
		{
			"Zero Values Get Defaults",
			DiscoveryQuery{Text: "q"},
			DiscoveryQuery{Text: "q", PlaylistLimit: 40, TrackSampleSize: 30, RenderLimit: 10},
		},
		{
			"Below Minimums",
			DiscoveryQuery{Text: "q", PlaylistLimit: -5, TrackSampleSize: 2, RenderLimit: -1},
			DiscoveryQuery{Text: "q", PlaylistLimit: 1, TrackSampleSize: 10, RenderLimit: 1},
		},
		{
			"Above Maximums",
			DiscoveryQuery{Text: "q", PlaylistLimit: 9999, TrackSampleSize: 500, RenderLimit: 80},
			DiscoveryQuery{Text: "q", PlaylistLimit: 200, TrackSampleSize: 100, RenderLimit: 50},
		},
		{
			"In Range Untouched",
			DiscoveryQuery{Text: "q", Model: "m", PlaylistLimit: 60, TrackSampleSize: 50, RenderLimit: 20},
			DiscoveryQuery{Text: "q", Model: "m", PlaylistLimit: 60, TrackSampleSize: 50, RenderLimit: 20},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Clamp(); got != tc.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	detail := PlaylistDetail{
		ID: "p1", Name: "Mix", Owner: "dj", Description: "d",
		FollowerCount: 10, TrackCount: 20,
		UniqueArtists: []string{"a"},
	}
	summary := Summary{
		PlaylistID: "p1", SummaryText: "fits well",
		AlignmentLevel: AlignmentStrong, MatchScore: 0.9,
		Characteristics: Characteristics{PrimaryGenre: "house"},
		Reasoning:       "r",
	}

	ranked := Merge(detail, summary)

	if ranked.ID != "p1" || ranked.Followers != 10 || ranked.TrackCount != 20 {
		t.Errorf("detail fields lost: %+v", ranked)
	}
	if ranked.MatchScore != 0.9 || ranked.AlignmentLevel != AlignmentStrong || ranked.Characteristics.PrimaryGenre != "house" {
		t.Errorf("summary fields lost: %+v", ranked)
	}
}
