// Package listennotes resolves favorite podcasts against the Listen Notes API.
package listennotes

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
)

// APIKeyHeader carries the Listen Notes credential.
const APIKeyHeader = "X-ListenAPI-Key"

// Query is one entry of the podcasts input list.
type Query struct {
	Name string `json:"name" validate:"required"`
}

// SearchHit is the first search result, kept for fallbacks.
type SearchHit struct {
	ID                  string          `json:"id"`
	TitleOriginal       string          `json:"title_original"`
	PublisherOriginal   string          `json:"publisher_original"`
	DescriptionOriginal string          `json:"description_original"`
	Genres              json.RawMessage `json:"genres"`
}

// HitID implements pipeline.Hit.
func (h SearchHit) HitID() string { return h.ID }

// Podcast is the detail record, paired with the search hit that found it.
type Podcast struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Image           string `json:"image"`
	Thumbnail       string `json:"thumbnail"`
	Publisher       string `json:"publisher"`
	GenreIDs        []int  `json:"genre_ids"`
	TotalEpisodes   int    `json:"total_episodes"`
	Description     string `json:"description"`
	Website         string `json:"website"`
	ListenNotesURL  string `json:"listennotes_url"`
	LatestPubDateMs *int64 `json:"latest_pub_date_ms"`
	ExplicitContent bool   `json:"explicit_content"`

	Hit SearchHit `json:"-"`
}

// Adapter implements the podcasts resolver.
type Adapter struct {
	client *apiclient.Client
	cfg    config.SourceConfig
}

// New creates a podcasts adapter. The client must send APIKeyHeader.
func New(client *apiclient.Client, cfg config.SourceConfig) *Adapter {
	return &Adapter{client: client, cfg: cfg}
}

// Header returns the default headers a podcasts client needs.
func Header(apiKey string) http.Header {
	return http.Header{http.CanonicalHeaderKey(APIKeyHeader): []string{apiKey}}
}

// Resolver returns the pipeline stages for podcasts.
func (a *Adapter) Resolver() pipeline.Resolver[Query, SearchHit, Podcast, struct{}, models.Podcast] {
	return pipeline.Resolver[Query, SearchHit, Podcast, struct{}, models.Podcast]{
		Describe: func(q Query) string { return q.Name },
		Validate: func(q Query) error {
			return normalizer.ValidateQuery(q)
		},
		Search:    a.Search,
		Detail:    a.Detail,
		Normalize: a.Normalize,
	}
}

// Search returns the first podcast result.
func (a *Adapter) Search(ctx context.Context, q Query) (SearchHit, error) {
	params := url.Values{}
	params.Set("q", q.Name)
	params.Set("type", "podcast")
	params.Set("sort_by_date", "0")
	params.Set("language", "Any language")
	params.Set("offset", "0")
	params.Set("len", "5")
	params.Set("safe_mode", "0")

	var resp struct {
		Results []SearchHit `json:"results"`
	}
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/search?"+params.Encode(), &resp); err != nil {
		return SearchHit{}, err
	}

	if len(resp.Results) == 0 || resp.Results[0].ID == "" {
		return SearchHit{}, pipeline.ErrNotFound
	}

	return resp.Results[0], nil
}

// Detail fetches the podcast and attaches the search hit.
func (a *Adapter) Detail(ctx context.Context, hit SearchHit, _ Query) (Podcast, error) {
	var podcast Podcast
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/podcasts/"+url.PathEscape(hit.ID)+"?sort=recent_first", &podcast); err != nil {
		return Podcast{}, err
	}

	podcast.Hit = hit

	return podcast, nil
}

// Normalize maps a podcast onto models.Podcast, falling back to the search hit.
func (a *Adapter) Normalize(q Query, p Podcast, _ struct{}, _ bool) (models.Podcast, error) {
	description := normalizer.FirstNonEmpty(p.Description, p.Hit.DescriptionOriginal)
	if description == "" {
		description = normalizer.DefaultDescription
	}

	return models.Podcast{
		ID:              normalizer.FirstNonEmpty(p.ID, p.Hit.ID),
		Title:           normalizer.FirstNonEmpty(p.Title, p.Hit.TitleOriginal, q.Name),
		Image:           normalizer.FirstNonEmpty(p.Image, p.Thumbnail, a.cfg.PlaceholderImage),
		Publisher:       normalizer.StringPtr(normalizer.FirstNonEmpty(p.Publisher, p.Hit.PublisherOriginal)),
		Genres:          genres(p.Hit.Genres, p.GenreIDs),
		EpisodeCount:    p.TotalEpisodes,
		Description:     description,
		Website:         normalizer.StringPtr(p.Website),
		ListenNotesURL:  normalizer.StringPtr(p.ListenNotesURL),
		LatestPubDateMs: p.LatestPubDateMs,
		ExplicitContent: p.ExplicitContent,
		SourceAPI:       models.SourceListenNotes,
	}, nil
}

// genres prefers the search hit's genre names when they are all strings and
// otherwise falls back to the detail genre ids.
func genres(fromSearch json.RawMessage, ids []int) []string {
	var names []string
	if len(fromSearch) > 0 && json.Unmarshal(fromSearch, &names) == nil && names != nil {
		return names
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.Itoa(id))
	}

	return out
}
