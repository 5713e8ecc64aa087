package listennotes

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favfetch/internal/apiclient"
	"favfetch/internal/config"
	"favfetch/internal/models"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
	"favfetch/internal/sources/sourcetest"
)

func newAdapter(srv *sourcetest.Server) *Adapter {
	cfg := config.Default().Sources[config.SourcePodcasts]
	cfg.BaseURL = srv.URL + "/api/v2"

	client := apiclient.New(apiclient.Options{
		Name:      "listennotes",
		UserAgent: cfg.UserAgent,
		Header:    Header("ln-key"),
		Pacer:     srv.Pacer,
	})

	return New(client, cfg)
}

func run(t *testing.T, a *Adapter, queries ...Query) *pipeline.Result[models.Podcast] {
	t.Helper()

	engine, err := pipeline.New(a.Resolver(), nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), queries)
	require.NoError(t, err)

	return result
}

func TestResolve_Podcast(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/api/v2/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ln-key", r.Header.Get(APIKeyHeader))
		assert.Equal(t, "Hardcore History", r.URL.Query().Get("q"))
		assert.Equal(t, "podcast", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("len"))
		_, _ = w.Write([]byte(`{"results":[{"id":"pod1","title_original":"Dan Carlin's Hardcore History","publisher_original":"Dan Carlin","genres":["History","Society"]}]}`))
	})
	srv.Handle("/api/v2/podcasts/pod1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "recent_first", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{
			"id": "pod1",
			"title": "Dan Carlin's Hardcore History",
			"thumbnail": "https://cdn/thumb.jpg",
			"genre_ids": [125, 122],
			"total_episodes": 72,
			"description": "Was Alexander the Great as bad a person as Adolf Hitler?",
			"website": "https://www.dancarlin.com",
			"listennotes_url": "https://www.listennotes.com/c/pod1/",
			"latest_pub_date_ms": 1700000000000,
			"explicit_content": true
		}`))
	})

	result := run(t, newAdapter(srv), Query{Name: "Hardcore History"})
	require.Len(t, result.Items, 1)

	podcast := result.Items[0]
	assert.Equal(t, "pod1", podcast.ID)
	assert.Equal(t, "Dan Carlin's Hardcore History", podcast.Title)
	assert.Equal(t, "https://cdn/thumb.jpg", podcast.Image)
	assert.Equal(t, "Dan Carlin", *podcast.Publisher)
	assert.Equal(t, []string{"History", "Society"}, podcast.Genres)
	assert.Equal(t, 72, podcast.EpisodeCount)
	assert.Equal(t, "https://www.dancarlin.com", *podcast.Website)
	assert.Equal(t, int64(1700000000000), *podcast.LatestPubDateMs)
	assert.True(t, podcast.ExplicitContent)
	assert.Equal(t, models.SourceListenNotes, podcast.SourceAPI)
	assert.Equal(t, 2, srv.Pacer.Waits)
}

func TestResolve_PodcastFallbacks(t *testing.T) {
	srv := sourcetest.New(t)
	srv.JSON("/api/v2/search", `{"results":[{"id":"pod2","title_original":"Search Title","description_original":"From search.","genres":[1, 2]}]}`)
	srv.JSON("/api/v2/podcasts/pod2", `{"id":"pod2","genre_ids":[67, 68]}`)

	result := run(t, newAdapter(srv), Query{Name: "Something"})
	require.Len(t, result.Items, 1)

	podcast := result.Items[0]
	assert.Equal(t, "Search Title", podcast.Title)
	assert.Equal(t, "From search.", podcast.Description)
	assert.Equal(t, config.PlaceholderArtwork, podcast.Image)
	assert.Equal(t, []string{"67", "68"}, podcast.Genres)
	assert.Nil(t, podcast.Publisher)
	assert.Nil(t, podcast.Website)
	assert.Nil(t, podcast.LatestPubDateMs)
}

func TestResolve_PodcastDefaults(t *testing.T) {
	srv := sourcetest.New(t)
	srv.JSON("/api/v2/search", `{"results":[{"id":"pod3"}]}`)
	srv.JSON("/api/v2/podcasts/pod3", `{}`)

	result := run(t, newAdapter(srv), Query{Name: "Bare"})
	require.Len(t, result.Items, 1)

	podcast := result.Items[0]
	assert.Equal(t, "pod3", podcast.ID)
	assert.Equal(t, "Bare", podcast.Title)
	assert.Equal(t, normalizer.DefaultDescription, podcast.Description)
	assert.Equal(t, []string{}, podcast.Genres)
}

func TestResolve_PodcastErrors(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/api/v2/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Missing" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}

		_, _ = w.Write([]byte(`{"results":[{"id":"gone"}]}`))
	})
	srv.Status("/api/v2/podcasts/gone", http.StatusUnauthorized)

	result := run(t, newAdapter(srv), Query{Name: "Missing"}, Query{Name: "Gone"})
	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.Stats.NotFound)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(result.Outcomes[1].Err))
}

func TestResolve_HitTravelsWithItsQuery(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/api/v2/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "First" {
			_, _ = w.Write([]byte(`{"results":[{"id":"pod9","title_original":"Stale Title","genres":["Old"]}]}`))
			return
		}

		_, _ = w.Write([]byte(`{"results":[{"id":"pod9","title_original":"Fresh Title"}]}`))
	})

	details := 0
	srv.Handle("/api/v2/podcasts/pod9", func(w http.ResponseWriter, _ *http.Request) {
		details++
		if details == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte(`{"id":"pod9","genre_ids":[88]}`))
	})

	result := run(t, newAdapter(srv), Query{Name: "First"}, Query{Name: "Second"})
	assert.Equal(t, 1, result.Stats.Failed)
	require.Len(t, result.Items, 1)

	podcast := result.Items[0]
	assert.Equal(t, "pod9", podcast.ID)
	assert.Equal(t, "Fresh Title", podcast.Title)
	assert.Equal(t, []string{"88"}, podcast.Genres)
	assert.Equal(t, "pod9", result.Outcomes[1].ID)
}

func TestDetail_UsesGivenHit(t *testing.T) {
	srv := sourcetest.New(t)
	srv.JSON("/api/v2/podcasts/pod4", `{"id":"pod4"}`)

	podcast, err := newAdapter(srv).Detail(context.Background(), SearchHit{ID: "pod4", PublisherOriginal: "Hit Publisher"}, Query{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Hit Publisher", podcast.Hit.PublisherOriginal)
	assert.Equal(t, "pod4", podcast.Hit.HitID())
}
