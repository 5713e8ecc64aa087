package models

// Movie is a resolved TMDB movie.
type Movie struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle *string  `json:"original_title"`
	Overview      string   `json:"overview"`
	PosterURL     string   `json:"poster_url"`
	BackdropURL   *string  `json:"backdrop_url"`
	Genres        []string `json:"genres"`
	ReleaseDate   *string  `json:"release_date"`
	Year          *string  `json:"year"`
	VoteAverage   *float64 `json:"vote_average"`
	Runtime       *int     `json:"runtime"`
	Homepage      *string  `json:"homepage"`
	IMDbID        *string  `json:"imdb_id"`
	FavoriteGenre *string  `json:"favorite_genre"`
	SourceAPI     string   `json:"source_api"`
}

// TVShow is a resolved TMDB TV series.
type TVShow struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	OriginalName    *string  `json:"original_name"`
	Overview        string   `json:"overview"`
	PosterURL       string   `json:"poster_url"`
	BackdropURL     *string  `json:"backdrop_url"`
	Genres          []string `json:"genres"`
	FirstAirDate    *string  `json:"first_air_date"`
	Year            *string  `json:"year"`
	VoteAverage     *float64 `json:"vote_average"`
	NumberOfSeasons *int     `json:"number_of_seasons"`
	Homepage        *string  `json:"homepage"`
	FavoriteGenre   *string  `json:"favorite_genre"`
	SourceAPI       string   `json:"source_api"`
}
