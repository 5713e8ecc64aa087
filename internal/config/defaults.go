package config

// Placeholder artwork used when an upstream record has no image.
const (
	PlaceholderCover   = "https://via.placeholder.com/500x750.png?text=No+Cover+Art"
	PlaceholderArtwork = "https://via.placeholder.com/500x500.png?text=No+Artwork"
)

// IGDB website categories, in the default precedence order.
const (
	WebsiteOfficial = 1
	WebsiteSteam    = 13
	WebsiteEpic     = 16
	WebsiteGOG      = 17
)

// Default returns the built-in configuration. The paths mirror the layout the
// site reads at build time.
func Default() *Config {
	return &Config{
		Sources: defaultSources(),
		Fetch: FetchConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "console",
			},
			Output: OutputConfig{
				PrettyPrint: true,
			},
			Breaker: BreakerConfig{
				MaxConsecutiveFailures: 0,
				OpenTimeoutSec:         60,
			},
			Retry: RetryPolicy{
				MaxAttempts:       1,
				InitialDelayMs:    500,
				MaxDelayMs:        5000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
		},
	}
}

func defaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		SourceBooks: {
			Input:            "src/data/myFavBooks.json",
			Output:           "src/data/books/bookDetails.json",
			Collection:       "allBooks",
			BaseURL:          "https://openlibrary.org",
			ImageURL:         "https://covers.openlibrary.org",
			UserAgent:        "favfetch-books/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage: PlaceholderCover,
			DelayMs:          500,
			ItemDelayMs:      500,
		},
		SourceGames: {
			Input:             "src/data/myFavGames.json",
			Output:            "src/data/gameDetails.json",
			Collection:        "allGames",
			BaseURL:           "https://api.igdb.com/v4",
			ImageURL:          "https://images.igdb.com/igdb/image/upload",
			AuthURL:           "https://id.twitch.tv/oauth2/token",
			UserAgent:         "favfetch-games/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage:  PlaceholderCover,
			WebsiteCategories: []int{WebsiteOfficial, WebsiteSteam, WebsiteGOG, WebsiteEpic},
			DelayMs:           300,
			MaxRPS:            4,
		},
		SourceArtists: {
			Input:            "src/data/myFavArtists.json",
			Output:           "src/data/artistDetails.json",
			Collection:       "allArtists",
			BaseURL:          "https://musicbrainz.org/ws/2",
			SecondaryURL:     "https://coverartarchive.org",
			UserAgent:        "favfetch-artists/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage: PlaceholderArtwork,
			DelayMs:          1000,
			MaxRPS:           1,
		},
		SourcePodcasts: {
			Input:            "src/data/myFavPodcasts.json",
			Output:           "src/data/podcastDetails.json",
			Collection:       "allPodcasts",
			BaseURL:          "https://listen-api.listennotes.com/api/v2",
			UserAgent:        "favfetch-podcasts/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage: PlaceholderArtwork,
			DelayMs:          1000,
		},
		SourceMovies: {
			Input:            "src/data/myFavMovies.json",
			Output:           "src/data/movieDetails.json",
			Collection:       "allMovies",
			BaseURL:          "https://api.themoviedb.org/3",
			ImageURL:         "https://image.tmdb.org/t/p/w500",
			UserAgent:        "favfetch-tmdb/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage: PlaceholderCover,
			DelayMs:          250,
		},
		SourceTV: {
			Input:            "src/data/myFavTvShows.json",
			Output:           "src/data/tvShowDetails.json",
			Collection:       "allTvShows",
			BaseURL:          "https://api.themoviedb.org/3",
			ImageURL:         "https://image.tmdb.org/t/p/w500",
			UserAgent:        "favfetch-tmdb/1.0 (+https://fav.jpdiaz.dev)",
			PlaceholderImage: PlaceholderCover,
			DelayMs:          250,
		},
	}
}
