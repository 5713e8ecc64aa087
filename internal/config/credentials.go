package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding upstream API credentials.
const (
	EnvIGDBClientID      = "IGDB_CLIENT_ID"
	EnvIGDBClientSecret  = "IGDB_CLIENT_SECRET"
	EnvListenNotesAPIKey = "LISTEN_NOTES_API_KEY"
	EnvTMDBAPIKey        = "TMDB_API_KEY"
)

// ErrMissingCredential is returned when a source's credential is not set.
var ErrMissingCredential = errors.New("missing required credential")

// Credentials holds API secrets read from the environment at startup.
type Credentials struct {
	IGDBClientID      string
	IGDBClientSecret  string
	ListenNotesAPIKey string
	TMDBAPIKey        string
}

// LoadCredentials loads envFile (if present) without overriding variables
// already set, then reads the credentials from the environment.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	return Credentials{
		IGDBClientID:      os.Getenv(EnvIGDBClientID),
		IGDBClientSecret:  os.Getenv(EnvIGDBClientSecret),
		ListenNotesAPIKey: os.Getenv(EnvListenNotesAPIKey),
		TMDBAPIKey:        os.Getenv(EnvTMDBAPIKey),
	}, nil
}

// Require checks that every credential the named source needs is present.
// Sources without credentials (books, artists) always pass.
func (c Credentials) Require(source string) error {
	var missing []string

	switch source {
	case SourceGames:
		if c.IGDBClientID == "" {
			missing = append(missing, EnvIGDBClientID)
		}

		if c.IGDBClientSecret == "" {
			missing = append(missing, EnvIGDBClientSecret)
		}
	case SourcePodcasts:
		if c.ListenNotesAPIKey == "" {
			missing = append(missing, EnvListenNotesAPIKey)
		}
	case SourceMovies, SourceTV:
		if c.TMDBAPIKey == "" {
			missing = append(missing, EnvTMDBAPIKey)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingCredential, missing)
	}

	return nil
}
