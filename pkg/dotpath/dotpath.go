// Package dotpath implements a small interpreter for dot-separated paths
// over generic JSON-shaped trees (map[string]any). It exists so the fixer's
// "set nested value, creating intermediates" mutation stays safe and
// testable independent of the workflow document's real shape.
package dotpath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath indicates an empty or all-dots path.
	ErrEmptyPath = errors.New("empty path")

	// ErrNotAContainer indicates a path segment traverses a value that is
	// not a map.
	ErrNotAContainer = errors.New("path segment is not a container")
)

// Set writes value at the dot-separated path inside tree, creating
// intermediate maps as needed. Writing through an existing non-map value
// fails rather than silently clobbering it.
func Set(tree map[string]any, path string, value any) error {
	segments, err := split(path)
	if err != nil {
		return err
	}

	current := tree

	for _, segment := range segments[:len(segments)-1] {
		next, exists := current[segment]
		if !exists || next == nil {
			child := make(map[string]any)
			current[segment] = child
			current = child

			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q in path %q", ErrNotAContainer, segment, path)
		}

		current = child
	}

	current[segments[len(segments)-1]] = value

	return nil
}

// Get reads the value at the dot-separated path. The second return is false
// when any segment is missing or traverses a non-map.
func Get(tree map[string]any, path string) (any, bool) {
	segments, err := split(path)
	if err != nil {
		return nil, false
	}

	current := tree

	for _, segment := range segments[:len(segments)-1] {
		child, ok := current[segment].(map[string]any)
		if !ok {
			return nil, false
		}

		current = child
	}

	value, exists := current[segments[len(segments)-1]]

	return value, exists
}

func split(path string) ([]string, error) {
	segments := strings.Split(path, ".")

	cleaned := make([]string, 0, len(segments))

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		cleaned = append(cleaned, segment)
	}

	if len(cleaned) == 0 {
		return nil, ErrEmptyPath
	}

	return cleaned, nil
}
