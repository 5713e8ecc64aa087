// Package metadata signs run reports with a trailing metadata block and
// verifies them later.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata identifies the run that produced a report.
type Metadata struct {
	GeneratedAt time.Time
	RunID       string
	Source      string
	Hash        string
}

var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract splits content into its metadata (nil when absent) and the body
// that the hash covers. Trailing newlines are trimmed from the body.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	body := strings.TrimRight(metadataRegex.ReplaceAllString(content, ""), "\n")

	if len(match) < 2 {
		return nil, body
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			meta.RunID = val
		case "SOURCE":
			meta.Source = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, body
}

// CalculateHash computes the SHA-256 of the body, ignoring any metadata block.
func CalculateHash(content string) string {
	_, body := Extract(content)
	hash := sha256.Sum256([]byte(body))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any metadata block in content with a fresh one carrying the
// run identity and the body hash. A zero GeneratedAt is set to now.
func Sign(content string, meta Metadata) string {
	_, body := Extract(content)

	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now()
	}

	block := fmt.Sprintf("\n\n%s\nRUN_ID: %s\nSOURCE: %s\nGENERATED_AT: %s\nHASH: %s\n%s\n",
		TagStart, meta.RunID, meta.Source, meta.GeneratedAt.UTC().Format(time.RFC3339), CalculateHash(body), TagEnd)

	return body + block
}

// Verify checks the body against the hash recorded in its metadata.
func Verify(content string) (*Metadata, error) {
	meta, body := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	if calculated := CalculateHash(body); calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
