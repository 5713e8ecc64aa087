// Package igdb resolves favorite games against the IGDB v4 API, authenticated
// with a Twitch client-credentials token.
package igdb

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
)

const detailFields = "id, name, slug, summary, first_release_date, aggregated_rating, " +
	"cover.image_id, genres.name, platforms.name, " +
	"involved_companies.developer, involved_companies.publisher, involved_companies.company.name, " +
	"screenshots.image_id, websites.url, websites.category, websites.type"

// Query is one entry of the games input list.
type Query struct {
	Name string `json:"name" validate:"required"`
}

type named struct {
	Name string `json:"name"`
}

type image struct {
	ImageID string `json:"image_id"`
}

type website struct {
	URL      string `json:"url"`
	Category *int   `json:"category"`
	Type     *int   `json:"type"`
}

// Game is the IGDB game record with expanded references.
type Game struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Summary           string    `json:"summary"`
	FirstReleaseDate  int64     `json:"first_release_date"`
	AggregatedRating  *float64  `json:"aggregated_rating"`
	Cover             *image    `json:"cover"`
	Genres            []named   `json:"genres"`
	Platforms         []named   `json:"platforms"`
	Screenshots       []image   `json:"screenshots"`
	Websites          []website `json:"websites"`
	InvolvedCompanies []struct {
		Developer bool   `json:"developer"`
		Publisher bool   `json:"publisher"`
		Company   *named `json:"company"`
	} `json:"involved_companies"`
}

// NewTokenSource returns a Twitch client-credentials token source. Tokens are
// cached and refreshed when they expire.
func NewTokenSource(ctx context.Context, cfg config.SourceConfig, creds config.Credentials, httpClient *http.Client) oauth2.TokenSource {
	cc := clientcredentials.Config{
		ClientID:     creds.IGDBClientID,
		ClientSecret: creds.IGDBClientSecret,
		TokenURL:     cfg.AuthURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	return cc.TokenSource(ctx)
}

// Adapter implements the games resolver.
type Adapter struct {
	client   *apiclient.Client
	tokens   oauth2.TokenSource
	cfg      config.SourceConfig
	clientID string
}

// New creates a games adapter. tokens supplies the bearer token for every call.
func New(client *apiclient.Client, cfg config.SourceConfig, clientID string, tokens oauth2.TokenSource) *Adapter {
	return &Adapter{client: client, tokens: tokens, cfg: cfg, clientID: clientID}
}

// Authenticate fetches the first token so a bad credential fails the run
// before any query is attempted.
func (a *Adapter) Authenticate() error {
	if _, err := a.tokens.Token(); err != nil {
		return fmt.Errorf("failed to obtain IGDB access token: %w", err)
	}

	return nil
}

// Resolver returns the pipeline stages for games.
func (a *Adapter) Resolver() pipeline.Resolver[Query, pipeline.ID, Game, struct{}, models.Game] {
	return pipeline.Resolver[Query, pipeline.ID, Game, struct{}, models.Game]{
		Describe: func(q Query) string { return q.Name },
		Validate: func(q Query) error {
			return normalizer.ValidateQuery(q)
		},
		Search:    a.Search,
		Detail:    a.Detail,
		Normalize: a.Normalize,
	}
}

// Search returns the IGDB id of the best match.
func (a *Adapter) Search(ctx context.Context, q Query) (pipeline.ID, error) {
	body := fmt.Sprintf(`search "%s"; fields id; limit 1;`, escape(q.Name))

	var hits []struct {
		ID int64 `json:"id"`
	}
	if err := a.post(ctx, body, &hits); err != nil {
		return "", err
	}

	if len(hits) == 0 {
		return "", pipeline.ErrNotFound
	}

	return pipeline.ID(normalizer.Itoa(hits[0].ID)), nil
}

// Detail fetches the game with its expanded references.
func (a *Adapter) Detail(ctx context.Context, hit pipeline.ID, _ Query) (Game, error) {
	id := string(hit)
	if !normalizer.IsDigits(id) {
		return Game{}, fmt.Errorf("invalid game id %q", id)
	}

	body := fmt.Sprintf("fields %s; where id = %s;", detailFields, id)

	var games []Game
	if err := a.post(ctx, body, &games); err != nil {
		return Game{}, err
	}

	if len(games) == 0 {
		return Game{}, fmt.Errorf("game %s: %w", id, pipeline.ErrNotFound)
	}

	return games[0], nil
}

func (a *Adapter) post(ctx context.Context, body string, out any) error {
	tok, err := a.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to refresh IGDB access token: %w", err)
	}

	return a.client.Do(ctx, apiclient.Request{
		Method:      http.MethodPost,
		URL:         a.cfg.BaseURL + "/games",
		Body:        []byte(body),
		ContentType: "text/plain",
		Header: http.Header{
			"Authorization": []string{"Bearer " + tok.AccessToken},
			"Client-Id":     []string{a.clientID},
		},
	}, out)
}

// Normalize maps a game onto models.Game.
func (a *Adapter) Normalize(q Query, g Game, _ struct{}, _ bool) (models.Game, error) {
	out := models.Game{
		ID:               g.ID,
		Slug:             normalizer.StringPtr(g.Slug),
		Name:             normalizer.FirstNonEmpty(g.Name, q.Name),
		DescriptionRaw:   g.Summary,
		BackgroundImage:  a.cfg.PlaceholderImage,
		Website:          normalizer.StringPtr(a.pickWebsite(g.Websites)),
		Platforms:        names(g.Platforms),
		Developers:       []string{},
		Publishers:       []string{},
		Genres:           names(g.Genres),
		ShortScreenshots: []string{},
		SourceAPI:        models.SourceIGDB,
	}

	if g.AggregatedRating != nil && *g.AggregatedRating > 0 {
		rating := int(math.Round(*g.AggregatedRating))
		out.Metacritic = &rating
	}

	if g.FirstReleaseDate != 0 {
		released := time.Unix(g.FirstReleaseDate, 0).UTC().Format(time.DateOnly)
		out.Released = &released
	}

	if g.Cover != nil && g.Cover.ImageID != "" {
		out.BackgroundImage = a.imageURL(g.Cover.ImageID, "cover_big")
	}

	for _, ic := range g.InvolvedCompanies {
		if ic.Company == nil || ic.Company.Name == "" {
			continue
		}

		if ic.Developer {
			out.Developers = append(out.Developers, ic.Company.Name)
		}

		if ic.Publisher {
			out.Publishers = append(out.Publishers, ic.Company.Name)
		}
	}

	for _, s := range g.Screenshots {
		if s.ImageID != "" {
			out.ShortScreenshots = append(out.ShortScreenshots, a.imageURL(s.ImageID, "screenshot_med"))
		}
	}

	return out, nil
}

// pickWebsite returns the first site matching the configured category
// precedence. Newer records carry "type" instead of "category".
func (a *Adapter) pickWebsite(sites []website) string {
	for _, want := range a.cfg.WebsiteCategories {
		for _, site := range sites {
			cat := site.Category
			if cat == nil {
				cat = site.Type
			}

			if cat != nil && *cat == want && site.URL != "" {
				return normalizer.EnsureScheme(site.URL)
			}
		}
	}

	return ""
}

func (a *Adapter) imageURL(imageID, size string) string {
	return fmt.Sprintf("%s/t_%s/%s.jpg", a.cfg.ImageURL, size, imageID)
}

func names(values []named) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.Name != "" {
			out = append(out, v.Name)
		}
	}

	return out
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
