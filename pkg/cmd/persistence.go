// Package cmd provides factory helpers shared by command entrypoints.
package cmd

import (
	"github.com/remedyhq/remedy/pkg/persistence"
	"github.com/remedyhq/remedy/pkg/persistence/file"
)

// NewPersistence creates a persistence backend from a database URL. Only
// file-backed storage ships today; the URL scheme keeps the seam open.
func NewPersistence(databaseURL string) persistence.Persistence {
	return file.NewPersistence(databaseURL)
}
