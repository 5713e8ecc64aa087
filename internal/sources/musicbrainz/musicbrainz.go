// Package musicbrainz resolves favorite artists against MusicBrainz and picks
// artwork from the Cover Art Archive.
package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/logger"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
)

const detailIncludes = "url-rels+aliases+tags+genres+ratings+release-groups"

// Query is one entry of the artists input list.
type Query struct {
	Name string `json:"name" validate:"required"`
}

type searchResponse struct {
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
}

// Artist is the MusicBrainz artist record with its includes.
type Artist struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	SortName       string         `json:"sort-name"`
	Type           string         `json:"type"`
	Country        string         `json:"country"`
	Disambiguation string         `json:"disambiguation"`
	Area           *area          `json:"area"`
	LifeSpan       lifeSpan       `json:"life-span"`
	Genres         []models.Tag   `json:"genres"`
	Tags           []models.Tag   `json:"tags"`
	Rating         rating         `json:"rating"`
	Relations      []relation     `json:"relations"`
	ReleaseGroups  []ReleaseGroup `json:"release-groups"`
}

type area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

type lifeSpan struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Ended bool   `json:"ended"`
}

type rating struct {
	Value *float64 `json:"value"`
	Votes int      `json:"votes-count"`
}

type relation struct {
	Type string `json:"type"`
	URL  struct {
		Resource string `json:"resource"`
	} `json:"url"`
}

// ReleaseGroup is an album, single or EP listed on the artist.
type ReleaseGroup struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	PrimaryType      string `json:"primary-type"`
	FirstReleaseDate string `json:"first-release-date"`
}

type coverArt struct {
	Images []coverImage `json:"images"`
}

type coverImage struct {
	Image      string `json:"image"`
	Front      bool   `json:"front"`
	Thumbnails struct {
		Large string `json:"large"`
	} `json:"thumbnails"`
}

// ErrCoverArtUnavailable reports that every cover art lookup for an artist
// failed with something other than a missing image.
var ErrCoverArtUnavailable = errors.New("cover art archive unavailable")

// Adapter implements the artists resolver.
type Adapter struct {
	client   *apiclient.Client
	coverArt *apiclient.Client
	log      *logger.Logger
	cfg      config.SourceConfig
}

// New creates an artists adapter. client talks to MusicBrainz and coverArt to
// the Cover Art Archive. Callers build both on one pacer so the source delay
// spans the two hosts while each keeps its own breaker and stats. A nil
// coverArt reuses client.
func New(client, coverArt *apiclient.Client, cfg config.SourceConfig, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}

	if coverArt == nil {
		coverArt = client
	}

	return &Adapter{client: client, coverArt: coverArt, log: log, cfg: cfg}
}

// Resolver returns the pipeline stages for artists.
func (a *Adapter) Resolver() pipeline.Resolver[Query, pipeline.ID, Artist, string, models.Artist] {
	return pipeline.Resolver[Query, pipeline.ID, Artist, string, models.Artist]{
		Describe: func(q Query) string { return q.Name },
		Validate: func(q Query) error {
			return normalizer.ValidateQuery(q)
		},
		Search:    a.Search,
		Detail:    a.Detail,
		Enrich:    a.Enrich,
		Normalize: a.Normalize,
	}
}

// Search returns the MBID of the first matching artist.
func (a *Adapter) Search(ctx context.Context, q Query) (pipeline.ID, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%q", q.Name))
	params.Set("fmt", "json")

	var resp searchResponse
	if err := a.client.GetJSON(ctx, a.cfg.BaseURL+"/artist/?"+params.Encode(), &resp); err != nil {
		return "", err
	}

	if len(resp.Artists) == 0 || resp.Artists[0].ID == "" {
		return "", pipeline.ErrNotFound
	}

	first := resp.Artists[0]
	if len(resp.Artists) > 1 {
		a.log.Warn("multiple artists matched, using the first",
			"query", q.Name, "matches", len(resp.Artists), "name", first.Name, "mbid", first.ID)
	}

	return pipeline.ID(first.ID), nil
}

// Detail fetches the artist with relations, tags and release groups.
func (a *Adapter) Detail(ctx context.Context, hit pipeline.ID, _ Query) (Artist, error) {
	mbid := string(hit)
	endpoint := fmt.Sprintf("%s/artist/%s?inc=%s&fmt=json", a.cfg.BaseURL, url.PathEscape(mbid), detailIncludes)

	var artist Artist
	if err := a.client.GetJSON(ctx, endpoint, &artist); err != nil {
		return Artist{}, err
	}

	if artist.ID == "" {
		artist.ID = mbid
	}

	return artist, nil
}

// Enrich walks the release groups, albums first, and returns the first cover
// image found. No image is an empty result, not an error, unless every lookup
// failed outright.
func (a *Adapter) Enrich(ctx context.Context, _ Query, artist Artist) (string, error) {
	if len(artist.ReleaseGroups) == 0 {
		a.log.Info("no release groups to search for artwork", "artist", artist.Name)
		return "", nil
	}

	var (
		failed  int
		lastErr error
	)

	for _, rg := range albumsFirst(artist.ReleaseGroups) {
		var art coverArt

		err := a.coverArt.GetJSON(ctx, a.cfg.SecondaryURL+"/release-group/"+url.PathEscape(rg.ID), &art)

		switch {
		case err == nil:
			if img := pickImage(art); img != "" {
				a.log.Debug("found cover art", "artist", artist.Name, "release_group", rg.Title)
				return img, nil
			}
		case ctx.Err() != nil:
			return "", err
		case apiclient.IsNotFound(err):
			a.log.Info("no cover art for release group", "release_group", rg.Title, "mbid", rg.ID)
		default:
			a.log.Warn("cover art lookup failed", "release_group", rg.Title, "mbid", rg.ID, "err", err)
			failed++
			lastErr = err
		}
	}

	if failed == len(artist.ReleaseGroups) {
		return "", fmt.Errorf("%w: %d lookups failed: %w", ErrCoverArtUnavailable, failed, lastErr)
	}

	a.log.Info("no cover art found after checking release groups", "artist", artist.Name)

	return "", nil
}

// Normalize maps an artist onto models.Artist.
func (a *Adapter) Normalize(q Query, artist Artist, imageURL string, _ bool) (models.Artist, error) {
	out := models.Artist{
		ID:             artist.ID,
		Name:           normalizer.FirstNonEmpty(artist.Name, q.Name),
		SortName:       normalizer.StringPtr(artist.SortName),
		Type:           normalizer.StringPtr(artist.Type),
		Country:        normalizer.StringPtr(artist.Country),
		Disambiguation: normalizer.StringPtr(artist.Disambiguation),
		LifeSpan: models.LifeSpan{
			Begin: normalizer.StringPtr(artist.LifeSpan.Begin),
			End:   normalizer.StringPtr(artist.LifeSpan.End),
			Ended: artist.LifeSpan.Ended,
		},
		Genres:        normalizer.NonNil(artist.Genres),
		Tags:          normalizer.NonNil(artist.Tags),
		Rating:        models.Rating{Value: artist.Rating.Value, Votes: artist.Rating.Votes},
		Relations:     make([]models.URLRelation, 0, len(artist.Relations)),
		ReleaseGroups: make([]models.ReleaseGroup, 0, len(artist.ReleaseGroups)),
		ImageURL:      normalizer.StringPtr(imageURL),
		SourceAPI:     models.SourceMusicBrainz,
	}

	if artist.Area != nil {
		out.Area = &models.Area{ID: artist.Area.ID, Name: artist.Area.Name, SortName: artist.Area.SortName}
	}

	for _, rel := range artist.Relations {
		if rel.URL.Resource == "" {
			continue
		}

		out.Relations = append(out.Relations, models.URLRelation{Type: rel.Type, URL: rel.URL.Resource})
	}

	for _, rg := range artist.ReleaseGroups {
		out.ReleaseGroups = append(out.ReleaseGroups, models.ReleaseGroup{
			ID:               rg.ID,
			Title:            rg.Title,
			PrimaryType:      normalizer.StringPtr(rg.PrimaryType),
			FirstReleaseDate: normalizer.StringPtr(rg.FirstReleaseDate),
		})
	}

	return out, nil
}

// albumsFirst returns a copy with Album release groups moved to the front,
// preserving the original order within each partition.
func albumsFirst(groups []ReleaseGroup) []ReleaseGroup {
	sorted := make([]ReleaseGroup, len(groups))
	copy(sorted, groups)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PrimaryType == "Album" && sorted[j].PrimaryType != "Album"
	})

	return sorted
}

// pickImage prefers a front image (large thumbnail, then full size) and falls
// back to the first image.
func pickImage(art coverArt) string {
	if len(art.Images) == 0 {
		return ""
	}

	for _, img := range art.Images {
		if img.Front {
			if src := normalizer.FirstNonEmpty(img.Thumbnails.Large, img.Image); src != "" {
				return src
			}
		}
	}

	first := art.Images[0]

	return normalizer.FirstNonEmpty(first.Thumbnails.Large, first.Image)
}
