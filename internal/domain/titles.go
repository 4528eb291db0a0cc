package domain

import "time"

const (
	// DefaultTitleLang is used when a title carries no xml:lang attribute
	DefaultTitleLang = "x-jat"
	// DefaultTitleType is used when a title carries no type attribute
	DefaultTitleType = TitleTypeSynonym
)

// Title types found in the AniDB title dump
const (
	TitleTypeMain     = "main"
	TitleTypeOfficial = "official"
	TitleTypeSynonym  = "synonym"
)

// TitleRecord is one title of one anime in the title dump
type TitleRecord struct {
	AID   int
	Lang  string
	Type  string
	Title string
}

// SearchHit is a single title search result
type SearchHit struct {
	AID   int    `json:"aid"`
	Title string `json:"title"`
}

// SearchResult is one page of a title search
type SearchResult struct {
	Results []SearchHit `json:"results"`
	Total   int         `json:"total"`
}

// ArtifactState describes where the title dump used for a rebuild came from
type ArtifactState string

const (
	ArtifactFresh      ArtifactState = "fresh"
	ArtifactDownloaded ArtifactState = "downloaded"
	ArtifactStale      ArtifactState = "stale-fallback"
)

// TitleIndexStats summarises one title index refresh
type TitleIndexStats struct {
	Artifact      ArtifactState
	ArtifactBytes int64
	Rebuilt       bool
	AnimeCount    int
	TitleCount    int
	Duration      time.Duration
}
