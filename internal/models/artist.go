package models

// Artist is a resolved MusicBrainz artist with optional cover art.
type Artist struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SortName       *string        `json:"sort_name"`
	Type           *string        `json:"type"`
	Country        *string        `json:"country"`
	Area           *Area          `json:"area"`
	Disambiguation *string        `json:"disambiguation"`
	LifeSpan       LifeSpan       `json:"life_span"`
	Genres         []Tag          `json:"genres"`
	Tags           []Tag          `json:"tags"`
	Rating         Rating         `json:"rating"`
	Relations      []URLRelation  `json:"relations"`
	ReleaseGroups  []ReleaseGroup `json:"release_groups"`
	ImageURL       *string        `json:"image_url"`
	SourceAPI      string         `json:"source_api"`
}

// Area is the artist's home region.
type Area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort_name"`
}

// LifeSpan holds begin/end dates, either of which may be unknown.
type LifeSpan struct {
	Begin *string `json:"begin"`
	End   *string `json:"end"`
	Ended bool    `json:"ended"`
}

// Tag is a genre or folksonomy tag with its vote count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Rating is the community rating, if any.
type Rating struct {
	Value *float64 `json:"value"`
	Votes int      `json:"votes_count"`
}

// URLRelation is an outbound link such as an official site or social profile.
type URLRelation struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ReleaseGroup is an album, single or EP.
type ReleaseGroup struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	PrimaryType      *string `json:"primary_type"`
	FirstReleaseDate *string `json:"first_release_date"`
}
