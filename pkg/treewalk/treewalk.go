// Package treewalk walks decoded JSON trees (maps, slices and scalars as
// produced by a generic JSON decode into any).
package treewalk

import (
	"errors"
	"sort"
)

// ErrSkip returned by a Visitor stops the walk from descending into the
// current node. It is not reported by Walk.
var ErrSkip = errors.New("skip node")

// Visitor is called once per node. parent is the closest enclosing object:
// the map that holds the node, or the node itself when it is an object
// inside an array. It is nil for the root and for scalars directly inside
// arrays.
type Visitor func(node any, parent map[string]any, depth int) error

// Walk visits root and its descendants depth-first. Object keys are visited
// in sorted order so the walk is deterministic. Nodes deeper than maxDepth
// are not visited; a negative maxDepth means no limit. The first error other
// than ErrSkip aborts the walk and is returned.
func Walk(root any, maxDepth int, visit Visitor) error {
	return walk(root, nil, 0, maxDepth, visit)
}

func walk(node any, parent map[string]any, depth, maxDepth int, visit Visitor) error {
	if maxDepth >= 0 && depth > maxDepth {
		return nil
	}

	if err := visit(node, parent, depth); err != nil {
		if errors.Is(err, ErrSkip) {
			return nil
		}

		return err
	}

	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			if err := walk(v[k], v, depth+1, maxDepth, visit); err != nil {
				return err
			}
		}
	case []any:
		for _, item := range v {
			obj, _ := item.(map[string]any)
			if err := walk(item, obj, depth+1, maxDepth, visit); err != nil {
				return err
			}
		}
	}

	return nil
}
