package domain

// TrackedAnime is a row of the tracker's anime table
type TrackedAnime struct {
	ID              int64  `json:"id"`
	AID             int    `json:"aid"`
	Title           string `json:"title"`
	TotalEpisodes   int    `json:"total_episodes"`
	WatchedEpisodes int    `json:"watched_episodes"`
	ImageURL        string `json:"image_url,omitempty"`
	Description     string `json:"description"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Type            string `json:"anime_type"`
}

// Completed reports whether every known episode has been watched
func (a TrackedAnime) Completed() bool {
	return a.TotalEpisodes > 0 && a.WatchedEpisodes >= a.TotalEpisodes
}

// NormalizedAnime is the tracker's view of an AniDB anime document
type NormalizedAnime struct {
	AID           int    `json:"aid"`
	Title         string `json:"title"`
	TotalEpisodes int    `json:"total_episodes"`
	Description   string `json:"description"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	Type          string `json:"anime_type"`
}

// Track converts a normalized anime into a new, unwatched tracker row
func (n *NormalizedAnime) Track() *TrackedAnime {
	return &TrackedAnime{
		AID:           n.AID,
		Title:         n.Title,
		TotalEpisodes: n.TotalEpisodes,
		ImageURL:      n.ImageURL,
		Description:   n.Description,
		StartDate:     n.StartDate,
		EndDate:       n.EndDate,
		Type:          n.Type,
	}
}

// ProgressDirection moves the watched episode counter
type ProgressDirection string

const (
	ProgressIncrement ProgressDirection = "increment"
	ProgressDecrement ProgressDirection = "decrement"
)

// Valid reports whether d is a known direction
func (d ProgressDirection) Valid() bool {
	return d == ProgressIncrement || d == ProgressDecrement
}

// Apply returns the watched count after moving one step in direction d,
// clamped to [0, total]
func (d ProgressDirection) Apply(watched, total int) int {
	switch d {
	case ProgressIncrement:
		if watched < total {
			return watched + 1
		}
	case ProgressDecrement:
		if watched > 0 {
			return watched - 1
		}
	}
	return watched
}
