package models

// Game is a resolved IGDB game.
type Game struct {
	ID               int64    `json:"id"`
	Slug             *string  `json:"slug"`
	Name             string   `json:"name"`
	DescriptionRaw   string   `json:"description_raw"`
	Metacritic       *int     `json:"metacritic"`
	Released         *string  `json:"released"`
	BackgroundImage  string   `json:"background_image"`
	Website          *string  `json:"website"`
	Platforms        []string `json:"platforms"`
	Developers       []string `json:"developers"`
	Publishers       []string `json:"publishers"`
	Genres           []string `json:"genres"`
	ShortScreenshots []string `json:"short_screenshots"`
	SourceAPI        string   `json:"source_api"`
}
