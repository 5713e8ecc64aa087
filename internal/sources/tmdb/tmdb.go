// Package tmdb resolves favorite movies and TV shows against The Movie
// Database v3 API.
package tmdb

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
)

// Kind selects the TMDB media type.
type Kind string

// Supported media types.
const (
	Movie Kind = "movie"
	TV    Kind = "tv"
)

// Query is one entry of a movies or TV input list. Either ID or a
// title/name is required; an ID skips the search call.
type Query struct {
	ID    int64  `json:"id" validate:"required_without_all=Title Name"`
	Title string `json:"title"`
	Name  string `json:"name"`
	Genre string `json:"genre"`
}

func (q Query) label() string {
	if text := normalizer.FirstNonEmpty(q.Title, q.Name); text != "" {
		return text
	}

	return fmt.Sprintf("#%d", q.ID)
}

// Record is the detail payload shared by movies and TV shows.
type Record struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Name            string   `json:"name"`
	OriginalTitle   string   `json:"original_title"`
	OriginalName    string   `json:"original_name"`
	Overview        string   `json:"overview"`
	PosterPath      string   `json:"poster_path"`
	BackdropPath    string   `json:"backdrop_path"`
	ReleaseDate     string   `json:"release_date"`
	FirstAirDate    string   `json:"first_air_date"`
	VoteAverage     *float64 `json:"vote_average"`
	Runtime         *int     `json:"runtime"`
	NumberOfSeasons *int     `json:"number_of_seasons"`
	Homepage        string   `json:"homepage"`
	IMDbID          string   `json:"imdb_id"`
	Genres          []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Adapter implements the movies and TV resolvers.
type Adapter struct {
	client *apiclient.Client
	cfg    config.SourceConfig
	apiKey string
	kind   Kind
}

// New creates an adapter for one media kind.
func New(client *apiclient.Client, cfg config.SourceConfig, apiKey string, kind Kind) *Adapter {
	return &Adapter{client: client, cfg: cfg, apiKey: apiKey, kind: kind}
}

func (a *Adapter) validate(q Query) error {
	return normalizer.ValidateQuery(q)
}

// MovieResolver returns the pipeline stages for movies.
func (a *Adapter) MovieResolver() pipeline.Resolver[Query, pipeline.ID, Record, struct{}, models.Movie] {
	return pipeline.Resolver[Query, pipeline.ID, Record, struct{}, models.Movie]{
		Describe:  Query.label,
		Validate:  a.validate,
		Search:    a.Search,
		Detail:    a.Detail,
		Normalize: a.NormalizeMovie,
	}
}

// TVResolver returns the pipeline stages for TV shows.
func (a *Adapter) TVResolver() pipeline.Resolver[Query, pipeline.ID, Record, struct{}, models.TVShow] {
	return pipeline.Resolver[Query, pipeline.ID, Record, struct{}, models.TVShow]{
		Describe:  Query.label,
		Validate:  a.validate,
		Search:    a.Search,
		Detail:    a.Detail,
		Normalize: a.NormalizeTV,
	}
}

// Search uses the query's id directly, otherwise the first search result.
func (a *Adapter) Search(ctx context.Context, q Query) (pipeline.ID, error) {
	if q.ID > 0 {
		return pipeline.ID(normalizer.Itoa(q.ID)), nil
	}

	params := url.Values{}
	params.Set("query", normalizer.FirstNonEmpty(q.Title, q.Name))

	var resp struct {
		Results []struct {
			ID int64 `json:"id"`
		} `json:"results"`
	}
	if err := a.client.GetJSON(ctx, a.endpoint("/search/"+string(a.kind), params), &resp); err != nil {
		return "", err
	}

	if len(resp.Results) == 0 || resp.Results[0].ID == 0 {
		return "", pipeline.ErrNotFound
	}

	return pipeline.ID(normalizer.Itoa(resp.Results[0].ID)), nil
}

// Detail fetches the movie or TV record.
func (a *Adapter) Detail(ctx context.Context, id pipeline.ID, _ Query) (Record, error) {
	var rec Record
	if err := a.client.GetJSON(ctx, a.endpoint(fmt.Sprintf("/%s/%s", a.kind, url.PathEscape(string(id))), nil), &rec); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Popular returns the raw results of the kind's popular list.
func (a *Adapter) Popular(ctx context.Context) ([]json.RawMessage, error) {
	var resp struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := a.client.GetJSON(ctx, a.endpoint(fmt.Sprintf("/%s/popular", a.kind), nil), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch popular %s: %w", a.kind, err)
	}

	return normalizer.NonNil(resp.Results), nil
}

// NormalizeMovie maps a record onto models.Movie.
func (a *Adapter) NormalizeMovie(q Query, rec Record, _ struct{}, _ bool) (models.Movie, error) {
	return models.Movie{
		ID:            rec.ID,
		Title:         normalizer.FirstNonEmpty(rec.Title, q.Title, q.Name),
		OriginalTitle: normalizer.StringPtr(rec.OriginalTitle),
		Overview:      a.overview(rec),
		PosterURL:     a.poster(rec),
		BackdropURL:   a.image(rec.BackdropPath),
		Genres:        genreNames(rec),
		ReleaseDate:   normalizer.StringPtr(rec.ReleaseDate),
		Year:          normalizer.ExtractYear(rec.ReleaseDate),
		VoteAverage:   rec.VoteAverage,
		Runtime:       rec.Runtime,
		Homepage:      normalizer.StringPtr(rec.Homepage),
		IMDbID:        normalizer.StringPtr(rec.IMDbID),
		FavoriteGenre: normalizer.StringPtr(q.Genre),
		SourceAPI:     models.SourceTMDB,
	}, nil
}

// NormalizeTV maps a record onto models.TVShow.
func (a *Adapter) NormalizeTV(q Query, rec Record, _ struct{}, _ bool) (models.TVShow, error) {
	return models.TVShow{
		ID:              rec.ID,
		Name:            normalizer.FirstNonEmpty(rec.Name, q.Name, q.Title),
		OriginalName:    normalizer.StringPtr(rec.OriginalName),
		Overview:        a.overview(rec),
		PosterURL:       a.poster(rec),
		BackdropURL:     a.image(rec.BackdropPath),
		Genres:          genreNames(rec),
		FirstAirDate:    normalizer.StringPtr(rec.FirstAirDate),
		Year:            normalizer.ExtractYear(rec.FirstAirDate),
		VoteAverage:     rec.VoteAverage,
		NumberOfSeasons: rec.NumberOfSeasons,
		Homepage:        normalizer.StringPtr(rec.Homepage),
		FavoriteGenre:   normalizer.StringPtr(q.Genre),
		SourceAPI:       models.SourceTMDB,
	}, nil
}

func (a *Adapter) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}

	params.Set("api_key", a.apiKey)

	return a.cfg.BaseURL + path + "?" + params.Encode()
}

func (a *Adapter) overview(rec Record) string {
	if rec.Overview == "" {
		return normalizer.DefaultDescription
	}

	return rec.Overview
}

func (a *Adapter) poster(rec Record) string {
	if rec.PosterPath == "" {
		return a.cfg.PlaceholderImage
	}

	return a.cfg.ImageURL + rec.PosterPath
}

func (a *Adapter) image(path string) *string {
	if path == "" {
		return nil
	}

	full := a.cfg.ImageURL + path

	return &full
}

func genreNames(rec Record) []string {
	out := make([]string, 0, len(rec.Genres))
	for _, g := range rec.Genres {
		if g.Name != "" {
			out = append(out, g.Name)
		}
	}

	return out
}
