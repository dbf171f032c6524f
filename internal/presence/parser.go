// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TitleKind tags the result of title parsing.
type TitleKind int

const (
	// KindMovie is the fallback: the whole title is the display name.
	KindMovie TitleKind = iota

	// KindSeasonEpisode is a "Series: S04E09 - Name" or "Series: S04E09"
	// style title.
	KindSeasonEpisode

	// KindDiskEpisode is a "Series: Disk 2 Name" style title, seen on
	// multi-disk box-set rips.
	KindDiskEpisode
)

// ParsedTitle is the tagged result of parsing a playback title. Series,
// Season, Episode, Disk and Name are populated per Kind; for KindMovie only
// Name is set.
type ParsedTitle struct {
	Kind    TitleKind
	Series  string
	Season  int
	Episode int
	Disk    int
	Name    string
}

var (
	diskPattern          = regexp.MustCompile(`^(.+?):\s*[Dd]is[ck]\s+(\d+)\s+(.+)$`)
	seasonEpisodePattern = regexp.MustCompile(`^(.+?):\s*[Ss](\d{1,3})[Ee](\d{1,3})\s*-\s*(.+)$`)
	seasonEpisodeBare    = regexp.MustCompile(`^(.+?):\s*[Ss](\d{1,3})[Ee](\d{1,3})\s*$`)
)

// ParseTitle classifies a playback title. Patterns are attempted in order:
// disk-episode, season-episode with a name, bare season-episode; anything
// else is treated as a movie or plain display title. Pure; never fails.
func ParseTitle(title string) ParsedTitle {
	title = strings.TrimSpace(title)

	if m := diskPattern.FindStringSubmatch(title); m != nil {
		disk, _ := strconv.Atoi(m[2])
		return ParsedTitle{
			Kind:   KindDiskEpisode,
			Series: strings.TrimSpace(m[1]),
			Disk:   disk,
			Name:   strings.TrimSpace(m[3]),
		}
	}

	if m := seasonEpisodePattern.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		return ParsedTitle{
			Kind:    KindSeasonEpisode,
			Series:  strings.TrimSpace(m[1]),
			Season:  season,
			Episode: episode,
			Name:    strings.TrimSpace(m[4]),
		}
	}

	if m := seasonEpisodeBare.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		return ParsedTitle{
			Kind:    KindSeasonEpisode,
			Series:  strings.TrimSpace(m[1]),
			Season:  season,
			Episode: episode,
		}
	}

	return ParsedTitle{Kind: KindMovie, Name: title}
}

// DisplayLine returns the secondary display line for the parsed title, or
// "" for movies, which show no secondary line.
func (p ParsedTitle) DisplayLine() string {
	switch p.Kind {
	case KindSeasonEpisode:
		marker := fmt.Sprintf("S%02dE%02d", p.Season, p.Episode)
		if p.Name == "" {
			return marker
		}
		return marker + " - " + p.Name
	case KindDiskEpisode:
		return fmt.Sprintf("Disk %d - %s", p.Disk, p.Name)
	default:
		return ""
	}
}

// PrimaryLine returns the primary display line: the series for episodic
// titles, the full title for movies.
func (p ParsedTitle) PrimaryLine() string {
	if p.Kind == KindMovie {
		return p.Name
	}
	return p.Series
}
