// Package models defines the flat records written to the site's data files.
// Every field has a defined default so consumers never branch on a missing key.
package models

// Source API labels written to each record.
const (
	SourceOpenLibrary = "OpenLibrary"
	SourceIGDB        = "IGDB"
	SourceMusicBrainz = "MusicBrainz"
	SourceListenNotes = "ListenNotes"
	SourceTMDB        = "TMDB"
)

// Book is a resolved OpenLibrary work.
type Book struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Authors         []string        `json:"authors"`
	AuthorDetails   []AuthorDetails `json:"author_details"`
	Description     string          `json:"description"`
	Subjects        []string        `json:"subjects"`
	PublicationYear *string         `json:"publication_year"`
	AverageRating   *float64        `json:"average_rating"`
	PageCount       *int            `json:"page_count"`
	CoverURL        string          `json:"cover_url"`
	ISBN10          *string         `json:"isbn_10"`
	ISBN13          *string         `json:"isbn_13"`
	Publisher       *string         `json:"publisher"`
	Links           BookLinks       `json:"links"`
	SourceAPI       string          `json:"source_api"`
	APIVersionInfo  APIVersionInfo  `json:"api_version_info"`
}

// AuthorDetails describes one author of a book.
type AuthorDetails struct {
	Name      string  `json:"name"`
	Bio       *string `json:"bio"`
	BirthDate *string `json:"birth_date"`
	DeathDate *string `json:"death_date"`
}

// BookLinks holds outbound links for a book.
type BookLinks struct {
	OpenLibrary string `json:"open_library"`
}

// APIVersionInfo tracks the upstream revision a record was built from.
type APIVersionInfo struct {
	WorkRevision *int `json:"work_revision"`
}
