// Package openlibrary resolves favorite books against the OpenLibrary API.
package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
)

// ErrNoAuthorKey means neither the search hit nor the work named an author.
var ErrNoAuthorKey = errors.New("no author key available")

// Query is one entry of the books input list.
type Query struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

type searchResponse struct {
	Docs []struct {
		Key       string   `json:"key"`
		AuthorKey []string `json:"author_key"`
	} `json:"docs"`
}

// SearchHit is the best search match: the work id (e.g. OL45804W) and its
// primary author key when the search listed one.
type SearchHit struct {
	WorkID    string
	AuthorKey string
}

// HitID implements pipeline.Hit.
func (h SearchHit) HitID() string { return h.WorkID }

// Work is the subset of an OpenLibrary work record the site uses.
type Work struct {
	Key              string              `json:"key"`
	Title            string              `json:"title"`
	Description      normalizer.FlexText `json:"description"`
	Subjects         []string            `json:"subjects"`
	FirstPublishDate string              `json:"first_publish_date"`
	Covers           []int64             `json:"covers"`
	ISBN10           []string            `json:"isbn_10"`
	ISBN13           []string            `json:"isbn_13"`
	Authors          []struct {
		Author struct {
			Key string `json:"key"`
		} `json:"author"`
	} `json:"authors"`
	LatestRevision *int `json:"latest_revision"`
	Revision       *int `json:"revision"`

	// searchAuthorKey is the primary author key from the search hit.
	searchAuthorKey string
}

// Author is an OpenLibrary author record.
type Author struct {
	Name      string              `json:"name"`
	Bio       normalizer.FlexText `json:"bio"`
	BirthDate string              `json:"birth_date"`
	DeathDate string              `json:"death_date"`
}

// Adapter implements the books resolver.
type Adapter struct {
	client *apiclient.Client
	cfg    config.SourceConfig
}

// New creates a books adapter.
func New(client *apiclient.Client, cfg config.SourceConfig) *Adapter {
	return &Adapter{client: client, cfg: cfg}
}

// Resolver returns the pipeline stages for books.
func (a *Adapter) Resolver() pipeline.Resolver[Query, SearchHit, Work, Author, models.Book] {
	return pipeline.Resolver[Query, SearchHit, Work, Author, models.Book]{
		Describe: func(q Query) string {
			return fmt.Sprintf("%s by %s", q.Title, q.Author)
		},
		Validate: func(q Query) error {
			return normalizer.ValidateQuery(q)
		},
		Search:    a.Search,
		Detail:    a.Detail,
		Enrich:    a.Enrich,
		Normalize: a.Normalize,
	}
}

// Search returns the best match.
func (a *Adapter) Search(ctx context.Context, q Query) (SearchHit, error) {
	params := url.Values{}
	params.Set("title", q.Title)
	params.Set("author", q.Author)
	params.Set("limit", "1")

	var resp searchResponse
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/search.json?"+params.Encode(), &resp); err != nil {
		return SearchHit{}, err
	}

	if len(resp.Docs) == 0 || resp.Docs[0].Key == "" {
		return SearchHit{}, pipeline.ErrNotFound
	}

	doc := resp.Docs[0]
	hit := SearchHit{WorkID: strings.TrimPrefix(doc.Key, "/works/")}

	if len(doc.AuthorKey) > 0 {
		hit.AuthorKey = doc.AuthorKey[0]
	}

	return hit, nil
}

// Detail fetches the work record and carries over the hit's author key.
func (a *Adapter) Detail(ctx context.Context, hit SearchHit, _ Query) (Work, error) {
	id := hit.WorkID

	var work Work
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/works/"+url.PathEscape(id)+".json", &work); err != nil {
		return Work{}, err
	}

	if work.Key == "" {
		work.Key = "/works/" + id
	}

	work.searchAuthorKey = hit.AuthorKey

	return work, nil
}

// Enrich fetches the primary author, preferring the key from the search hit.
func (a *Adapter) Enrich(ctx context.Context, _ Query, work Work) (Author, error) {
	key := work.searchAuthorKey
	if key == "" && len(work.Authors) > 0 {
		key = strings.TrimPrefix(work.Authors[0].Author.Key, "/authors/")
	}

	if key == "" {
		return Author{}, ErrNoAuthorKey
	}

	var author Author
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/authors/"+url.PathEscape(key)+".json", &author); err != nil {
		return Author{}, fmt.Errorf("author %s: %w", key, err)
	}

	return author, nil
}

// Normalize maps a work and its author onto models.Book.
func (a *Adapter) Normalize(q Query, work Work, author Author, enriched bool) (models.Book, error) {
	workID := strings.TrimPrefix(work.Key, "/works/")
	title := normalizer.FirstNonEmpty(work.Title, q.Title)

	details := models.AuthorDetails{Name: q.Author}
	if enriched {
		details = models.AuthorDetails{
			Name:      normalizer.FirstNonEmpty(author.Name, q.Author),
			Bio:       author.Bio.Ptr(),
			BirthDate: normalizer.StringPtr(author.BirthDate),
			DeathDate: normalizer.StringPtr(author.DeathDate),
		}
	}

	revision := work.LatestRevision
	if revision == nil {
		revision = work.Revision
	}

	return models.Book{
		ID:              workID,
		Slug:            normalizer.Slug(title, workID),
		Title:           title,
		Authors:         []string{details.Name},
		AuthorDetails:   []models.AuthorDetails{details},
		Description:     work.Description.OrDefault(normalizer.DefaultDescription),
		Subjects:        normalizer.NonNil(work.Subjects),
		PublicationYear: normalizer.ExtractYear(work.FirstPublishDate),
		CoverURL:        a.coverURL(work.Covers),
		ISBN10:          normalizer.First(work.ISBN10),
		ISBN13:          normalizer.First(work.ISBN13),
		Links:           models.BookLinks{OpenLibrary: "https://openlibrary.org/works/" + workID},
		SourceAPI:       models.SourceOpenLibrary,
		APIVersionInfo:  models.APIVersionInfo{WorkRevision: revision},
	}, nil
}

func (a *Adapter) coverURL(covers []int64) string {
	if len(covers) == 0 || covers[0] <= 0 {
		return a.cfg.PlaceholderImage
	}

	return fmt.Sprintf("%s/b/id/%d-L.jpg", a.cfg.ImageURL, covers[0])
}
