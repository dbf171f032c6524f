// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import "testing"

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  ParsedTitle
	}{
		{
			"season episode with name",
			"Stranger Things: S04E09 - The Piggyback",
			ParsedTitle{
				Kind: KindSeasonEpisode, Series: "Stranger Things",
				Season: 4, Episode: 9, Name: "The Piggyback",
			},
		},
		{
			"bare season episode",
			"Dark: S01E03",
			ParsedTitle{Kind: KindSeasonEpisode, Series: "Dark", Season: 1, Episode: 3},
		},
		{
			"lowercase marker",
			"The Wire: s03e11 - Middle Ground",
			ParsedTitle{
				Kind: KindSeasonEpisode, Series: "The Wire",
				Season: 3, Episode: 11, Name: "Middle Ground",
			},
		},
		{
			"disk episode",
			"Planet Earth: Disk 2 Mountains",
			ParsedTitle{Kind: KindDiskEpisode, Series: "Planet Earth", Disk: 2, Name: "Mountains"},
		},
		{
			"movie",
			"Inception",
			ParsedTitle{Kind: KindMovie, Name: "Inception"},
		},
		{
			"movie with a colon",
			"Blade Runner: The Final Cut",
			ParsedTitle{Kind: KindMovie, Name: "Blade Runner: The Final Cut"},
		},
		{
			"surrounding whitespace",
			"  Dark: S01E03  ",
			ParsedTitle{Kind: KindSeasonEpisode, Series: "Dark", Season: 1, Episode: 3},
		},
		{
			"empty title",
			"",
			ParsedTitle{Kind: KindMovie, Name: ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTitle(tt.title); got != tt.want {
				t.Errorf("ParseTitle(%q) = %+v, want %+v", tt.title, got, tt.want)
			}
		})
	}
}

func TestDisplayLines(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		wantPrimary string
		wantDisplay string
	}{
		{
			"episode lines",
			"Stranger Things: S04E09 - The Piggyback",
			"Stranger Things",
			"S04E09 - The Piggyback",
		},
		{"bare episode lines", "Dark: S01E03", "Dark", "S01E03"},
		{"disk lines", "Planet Earth: Disk 2 Mountains", "Planet Earth", "Disk 2 - Mountains"},
		{"movie has no secondary line", "Inception", "Inception", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseTitle(tt.title)
			if got := p.PrimaryLine(); got != tt.wantPrimary {
				t.Errorf("PrimaryLine() = %q, want %q", got, tt.wantPrimary)
			}
			if got := p.DisplayLine(); got != tt.wantDisplay {
				t.Errorf("DisplayLine() = %q, want %q", got, tt.wantDisplay)
			}
		})
	}
}
