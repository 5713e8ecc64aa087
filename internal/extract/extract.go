// Package extract builds the podcast input list from an exported listening
// library.
package extract

import (
	"fmt"
	"strings"

	"favfetch/internal/dataset"
	"favfetch/internal/logger"
	"favfetch/internal/models"
	"favfetch/pkg/treewalk"
)

// Defaults for the podcast extraction.
const (
	DefaultInput    = "src/data/mySpotifyLibrary.json"
	DefaultKeyword  = "podcast"
	DefaultMaxDepth = 64
)

// Options configures a podcast extraction run. MaxDepth is passed through
// as given: 0 walks only the root and a negative value means no limit.
type Options struct {
	Input    string
	Output   string
	Keyword  string
	MaxDepth int
}

// Podcasts walks a decoded library and returns the names of objects whose
// string values mention the keyword. Names are unique and keep the order
// in which they were first seen.
func Podcasts(tree any, keyword string, maxDepth int) ([]models.PodcastName, error) {
	needle := strings.ToLower(keyword)
	seen := map[string]bool{}
	names := []models.PodcastName{}

	err := treewalk.Walk(tree, maxDepth, func(node any, parent map[string]any, _ int) error {
		text, ok := node.(string)
		if !ok || parent == nil || !strings.Contains(strings.ToLower(text), needle) {
			return nil
		}

		name, _ := parent["name"].(string)
		if name == "" || seen[name] {
			return nil
		}

		seen[name] = true
		names = append(names, models.PodcastName{Name: name})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// Run reads opts.Input, extracts podcast names and writes them to
// opts.Output as a podcast query list.
func Run(opts Options, log *logger.Logger) ([]models.PodcastName, error) {
	if log == nil {
		log = logger.Nop()
	}

	if opts.Input == "" {
		opts.Input = DefaultInput
	}

	if opts.Keyword == "" {
		opts.Keyword = DefaultKeyword
	}

	tree, err := dataset.ReadTree(opts.Input)
	if err != nil {
		return nil, err
	}

	names, err := Podcasts(tree, opts.Keyword, opts.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", opts.Input, err)
	}

	if err := dataset.WriteJSON(opts.Output, names); err != nil {
		return nil, err
	}

	log.Info("extracted podcasts", "count", len(names), "output", opts.Output)

	return names, nil
}
