package models

// Podcast is a resolved Listen Notes podcast.
type Podcast struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Image           string   `json:"image"`
	Publisher       *string  `json:"publisher"`
	Genres          []string `json:"genres"`
	EpisodeCount    int      `json:"episode_count"`
	Description     string   `json:"description"`
	Website         *string  `json:"website"`
	ListenNotesURL  *string  `json:"listennotes_url"`
	LatestPubDateMs *int64   `json:"latest_pub_date_ms"`
	ExplicitContent bool     `json:"explicit_content"`
	SourceAPI       string   `json:"source_api"`
}

// PodcastName is one entry of the podcast input list.
type PodcastName struct {
	Name string `json:"name"`
}
