// Package file provides file-based persistence for fix sessions and backups.
// One JSON document per aggregate: sessions under <root>/sessions, backups
// under <root>/backups.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/persistence"
)

const (
	sessionsDir = "sessions"
	backupsDir  = "backups"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists, creating it on first use.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.MkdirAll(fp.root, dirPerm)
	}

	return nil
}

// SaveSession writes the full session document, overwriting any previous
// save for the same id. Safe to call repeatedly, including mid-failure.
func (fp *Persistence) SaveSession(_ context.Context, session *models.FixSession) error {
	if session.ID == "" {
		return persistence.NewSessionError("SaveSession", "", fmt.Errorf("session id is empty"))
	}

	if err := fp.writeJSON(sessionsDir, session.ID, session); err != nil {
		return persistence.NewSessionError("SaveSession", session.ID, err)
	}

	return nil
}

// SessionByID loads one persisted session, or ErrSessionNotFound.
func (fp *Persistence) SessionByID(_ context.Context, id string) (*models.FixSession, error) {
	data, err := os.ReadFile(fp.path(sessionsDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewSessionError("SessionByID", id, persistence.ErrSessionNotFound)
		}

		return nil, persistence.NewSessionError("SessionByID", id, err)
	}

	session := &models.FixSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, persistence.NewSessionError("SessionByID", id, fmt.Errorf("corrupt session document: %w", err))
	}

	return session, nil
}

// ListSessionIDs returns up to limit session ids, most recently written
// first.
func (fp *Persistence) ListSessionIDs(_ context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	entries, err := os.ReadDir(filepath.Join(fp.root, sessionsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	type candidate struct {
		id      string
		modTime int64
	}

	candidates := make([]candidate, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		candidates = append(candidates, candidate{
			id:      strings.TrimSuffix(name, ".json"),
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime != candidates[j].modTime {
			return candidates[i].modTime > candidates[j].modTime
		}

		return candidates[i].id > candidates[j].id
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.id)
	}

	return ids, nil
}

// SaveBackup writes an immutable pre-session snapshot keyed by backup.Key.
func (fp *Persistence) SaveBackup(_ context.Context, backup *models.Backup) error {
	if backup.Key == "" {
		return persistence.NewBackupError("SaveBackup", "", fmt.Errorf("backup key is empty"))
	}

	if err := fp.writeJSON(backupsDir, backup.Key, backup); err != nil {
		return persistence.NewBackupError("SaveBackup", backup.Key, err)
	}

	return nil
}

// BackupByKey loads one persisted backup, or ErrBackupNotFound.
func (fp *Persistence) BackupByKey(_ context.Context, key string) (*models.Backup, error) {
	data, err := os.ReadFile(fp.path(backupsDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewBackupError("BackupByKey", key, persistence.ErrBackupNotFound)
		}

		return nil, persistence.NewBackupError("BackupByKey", key, err)
	}

	backup := &models.Backup{}
	if err := json.Unmarshal(data, backup); err != nil {
		return nil, persistence.NewBackupError("BackupByKey", key, fmt.Errorf("corrupt backup document: %w", err))
	}

	return backup, nil
}

func (fp *Persistence) path(dir, id string) string {
	return filepath.Join(fp.root, dir, id+".json")
}

func (fp *Persistence) writeJSON(dir, id string, document any) error {
	if err := os.MkdirAll(filepath.Join(fp.root, dir), dirPerm); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	return os.WriteFile(fp.path(dir, id), data, filePerm)
}
