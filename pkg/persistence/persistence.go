// Package persistence provides the storage abstraction for fix sessions and
// workflow backups.
package persistence

import (
	"context"

	"github.com/remedyhq/remedy/pkg/models"
)

type Persistence interface {
	SaveSession(ctx context.Context, session *models.FixSession) error
	SessionByID(ctx context.Context, id string) (*models.FixSession, error)
	ListSessionIDs(ctx context.Context, limit int) ([]string, error)

	SaveBackup(ctx context.Context, backup *models.Backup) error
	BackupByKey(ctx context.Context, key string) (*models.Backup, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
