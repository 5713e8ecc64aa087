package tmdb

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favfetch/internal/config"
	"favfetch/internal/normalizer"
	"favfetch/internal/pipeline"
	"favfetch/internal/sources/sourcetest"
)

const matrixDetail = `{
	"id": 603,
	"title": "The Matrix",
	"original_title": "The Matrix",
	"overview": "Set in the 22nd century...",
	"poster_path": "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
	"backdrop_path": "/fNG7i7RqMErkcqhohV2a6cV1Ehy.jpg",
	"release_date": "1999-03-30",
	"vote_average": 8.2,
	"runtime": 136,
	"homepage": "http://www.warnerbros.com/matrix",
	"imdb_id": "tt0133093",
	"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}]
}`

func newAdapter(srv *sourcetest.Server, kind Kind) *Adapter {
	source := config.SourceMovies
	if kind == TV {
		source = config.SourceTV
	}

	cfg := config.Default().Sources[source]
	cfg.BaseURL = srv.URL + "/3"

	return New(srv.APIClient("tmdb", cfg.UserAgent), cfg, "tmdb-key", kind)
}

func requireKey(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
}

func TestResolve_MovieByID(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/3/movie/603", func(w http.ResponseWriter, r *http.Request) {
		requireKey(t, r)
		_, _ = w.Write([]byte(matrixDetail))
	})

	engine, err := pipeline.New(newAdapter(srv, Movie).MovieResolver(), nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), []Query{{ID: 603, Genre: "Sci-Fi"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	movie := result.Items[0]
	assert.Equal(t, int64(603), movie.ID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", movie.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/fNG7i7RqMErkcqhohV2a6cV1Ehy.jpg", *movie.BackdropURL)
	assert.Equal(t, []string{"Action", "Science Fiction"}, movie.Genres)
	assert.Equal(t, "1999-03-30", *movie.ReleaseDate)
	assert.Equal(t, "1999", *movie.Year)
	assert.Equal(t, 8.2, *movie.VoteAverage)
	assert.Equal(t, 136, *movie.Runtime)
	assert.Equal(t, "tt0133093", *movie.IMDbID)
	assert.Equal(t, "Sci-Fi", *movie.FavoriteGenre)

	// The id skips the search call.
	assert.Equal(t, 1, srv.Hits())
	assert.Equal(t, 1, srv.Pacer.Waits)
}

func TestResolve_MovieByTitle(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/3/search/movie", func(w http.ResponseWriter, r *http.Request) {
		requireKey(t, r)
		assert.Equal(t, "The Matrix", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{"results":[{"id":603},{"id":604}]}`))
	})
	srv.JSON("/3/movie/603", `{"id":603}`)

	engine, err := pipeline.New(newAdapter(srv, Movie).MovieResolver(), nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), []Query{{Title: "The Matrix"}, {}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Stats.Skipped)

	movie := result.Items[0]
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, normalizer.DefaultDescription, movie.Overview)
	assert.Equal(t, config.PlaceholderCover, movie.PosterURL)
	assert.Nil(t, movie.BackdropURL)
	assert.Equal(t, []string{}, movie.Genres)
	assert.Nil(t, movie.Year)
	assert.Nil(t, movie.FavoriteGenre)
}

func TestResolve_TVShow(t *testing.T) {
	srv := sourcetest.New(t)
	srv.JSON("/3/search/tv", `{"results":[{"id":1396}]}`)
	srv.JSON("/3/tv/1396", `{
		"id": 1396,
		"name": "Breaking Bad",
		"original_name": "Breaking Bad",
		"overview": "Walter White...",
		"first_air_date": "2008-01-20",
		"number_of_seasons": 5,
		"genres": [{"name": "Drama"}]
	}`)

	engine, err := pipeline.New(newAdapter(srv, TV).TVResolver(), nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), []Query{{Name: "Breaking Bad", Genre: "Drama"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	show := result.Items[0]
	assert.Equal(t, int64(1396), show.ID)
	assert.Equal(t, "Breaking Bad", show.Name)
	assert.Equal(t, "2008", *show.Year)
	assert.Equal(t, 5, *show.NumberOfSeasons)
	assert.Equal(t, []string{"Drama"}, show.Genres)
	assert.Equal(t, 2, srv.Pacer.Waits)
}

func TestResolve_NotFoundAndFailure(t *testing.T) {
	srv := sourcetest.New(t)
	srv.JSON("/3/search/movie", `{"results":[]}`)
	srv.Status("/3/movie/999", http.StatusNotFound)

	engine, err := pipeline.New(newAdapter(srv, Movie).MovieResolver(), nil, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), []Query{{Title: "Nothing"}, {ID: 999}})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.Stats.NotFound)
	assert.Equal(t, 1, result.Stats.Failed)
}

func TestPopular(t *testing.T) {
	srv := sourcetest.New(t)
	srv.Handle("/3/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		requireKey(t, r)
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
	})
	srv.JSON("/3/tv/popular", `{"page":1}`)

	results, err := newAdapter(srv, Movie).Popular(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.JSONEq(t, `{"id":1,"title":"A"}`, string(results[0]))

	results, err = newAdapter(srv, TV).Popular(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}
