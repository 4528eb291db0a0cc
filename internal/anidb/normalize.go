package anidb

import (
	"strconv"
	"strings"

	"github.com/varoOP/anitrack/internal/domain"
)

const (
	UnknownTitle     = "Unknown Title"
	UnknownType      = "Unknown"
	NoDescription    = "No description available."
	ImageRoutePrefix = "/api/image/"
)

// Normalize converts a document into the tracker's anime shape. Missing
// optional fields fall back to defaults instead of failing.
func Normalize(aid int, doc *Document, rules Rewriter) *domain.NormalizedAnime {
	title, ok := doc.MainTitle()
	if !ok {
		title = UnknownTitle
	}

	description := strings.TrimSpace(doc.Description)
	if description == "" {
		description = NoDescription
	}

	animeType := strings.TrimSpace(doc.Type)
	if animeType == "" {
		animeType = UnknownType
	}

	return &domain.NormalizedAnime{
		AID:           aid,
		Title:         title,
		TotalEpisodes: episodeCount(doc.EpisodeCount),
		Description:   rules.Apply(description),
		StartDate:     strings.TrimSpace(doc.StartDate),
		EndDate:       strings.TrimSpace(doc.EndDate),
		ImageURL:      imageURL(doc.Picture),
		Type:          animeType,
	}
}

func episodeCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func imageURL(picture string) string {
	picture = strings.TrimSpace(picture)
	if picture == "" {
		return ""
	}
	return ImageRoutePrefix + picture
}
