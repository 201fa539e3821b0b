// Package modelstore owns the active model slot: the single filesystem
// location the prediction path reads. It archives versions, records their
// provenance and restores them on demand.
package modelstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/trainer"
)

var (
	// ErrVersionNotFound reports a restore target whose record or backing
	// artifact directory is missing. The active slot is left untouched.
	ErrVersionNotFound = errors.New("model version not found")

	// ErrOperationInProgress reports a retrain or restore attempted while
	// another one is running. Mutations of the active slot fail fast instead
	// of corrupting it.
	ErrOperationInProgress = errors.New("model operation already in progress")
)

// Manager serializes every mutation of the active model slot. Concurrent
// retrain/restore requests beyond the first fail with ErrOperationInProgress.
type Manager struct {
	store      *Store
	trainer    trainer.Runner
	modelDir   string
	archiveDir string
	log        *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewManager(store *Store, runner trainer.Runner, modelDir, archiveDir string, log *zap.Logger) *Manager {
	return &Manager{
		store:      store,
		trainer:    runner,
		modelDir:   modelDir,
		archiveDir: archiveDir,
		log:        log,
		now:        time.Now,
	}
}

// Retrain archives the active model, runs the external trainer on the given
// corpus and records the new version as the single active one. When training
// fails the pre-retrain archive is copied back into the slot, so a failed run
// never leaves the slot empty.
func (m *Manager) Retrain(ctx context.Context, datasetPath string) (*ModelVersion, error) {
	if !m.mu.TryLock() {
		return nil, ErrOperationInProgress
	}
	defer m.mu.Unlock()

	rollback, err := m.archiveActive()
	if err != nil {
		return nil, err
	}

	result, err := m.trainer.Train(ctx, datasetPath)
	if err != nil {
		if rollback != "" {
			if restoreErr := m.copyIntoSlot(rollback); restoreErr != nil {
				m.log.Error("restoring pre-retrain model failed, active slot is empty",
					zap.String("archive", rollback),
					zap.Error(restoreErr),
				)
			} else {
				m.log.Warn("training failed, previous model restored",
					zap.String("archive", rollback),
				)
			}
		}
		return nil, err
	}

	// Snapshot the fresh artifact so this version can be restored later even
	// after the slot is overwritten by the next retrain.
	snapshot := m.archivePath()
	if err := copyDir(m.modelDir, snapshot); err != nil {
		return nil, fmt.Errorf("archiving trained model: %w", err)
	}

	version := &ModelVersion{
		ID:        uuid.NewString(),
		FileName:  filepath.Base(datasetPath),
		Accuracy:  result.Accuracy,
		TrainedAt: m.now(),
		ModelPath: snapshot,
	}

	if err := m.store.CreateActive(ctx, version); err != nil {
		return nil, fmt.Errorf("recording model version: %w", err)
	}

	m.log.Info("model retrained",
		zap.String("version_id", version.ID),
		zap.String("dataset", version.FileName),
		zap.Float64("accuracy", version.Accuracy),
	)

	return version, nil
}

// Restore copies an archived version back into the active slot and flips the
// active flag. Restoring the already-active version is a no-op success. The
// artifact directory is checked before the slot is touched, so a missing
// archive leaves the currently served model unchanged.
func (m *Manager) Restore(ctx context.Context, id string) (*ModelVersion, error) {
	if !m.mu.TryLock() {
		return nil, ErrOperationInProgress
	}
	defer m.mu.Unlock()

	version, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if version.IsActive {
		return version, nil
	}

	if strings.TrimSpace(version.ModelPath) == "" || !dirExists(version.ModelPath) {
		return nil, fmt.Errorf("%w: artifact directory %q is missing", ErrVersionNotFound, version.ModelPath)
	}

	if err := m.copyIntoSlot(version.ModelPath); err != nil {
		return nil, fmt.Errorf("restoring model artifact: %w", err)
	}

	if err := m.store.Activate(ctx, version.ID); err != nil {
		return nil, err
	}
	version.IsActive = true

	m.log.Info("model version restored",
		zap.String("version_id", version.ID),
		zap.Float64("accuracy", version.Accuracy),
	)

	return version, nil
}

// List returns the retraining history, most recent first.
func (m *Manager) List(ctx context.Context) ([]ModelVersion, error) {
	return m.store.List(ctx)
}

// archiveActive copies the active slot into a timestamped archive directory
// and clears the slot. It returns the archive path, or "" when no model was
// active.
func (m *Manager) archiveActive() (string, error) {
	if !dirExists(m.modelDir) {
		return "", nil
	}

	archived := m.archivePath()
	if err := copyDir(m.modelDir, archived); err != nil {
		return "", fmt.Errorf("archiving active model: %w", err)
	}
	if err := os.RemoveAll(m.modelDir); err != nil {
		return "", fmt.Errorf("clearing active model slot: %w", err)
	}

	m.log.Info("active model archived", zap.String("archive", archived))

	return archived, nil
}

func (m *Manager) copyIntoSlot(src string) error {
	if err := os.RemoveAll(m.modelDir); err != nil {
		return err
	}
	return copyDir(src, m.modelDir)
}

func (m *Manager) archivePath() string {
	base := filepath.Join(m.archiveDir, fmt.Sprintf("model_v_%d", m.now().UnixMilli()))

	// A retrain archives twice (rollback copy, then snapshot); keep the names
	// distinct when both land in the same millisecond.
	path := base
	for i := 1; dirExists(path); i++ {
		path = fmt.Sprintf("%s_%d", base, i)
	}

	return path
}

// LatestCSV resolves the newest uploaded dataset in dir by modification time.
func LatestCSV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading dataset directory %q: %w", dir, err)
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = entry.Name()
			latestTime = info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("no CSV dataset found in %q", dir)
	}

	return filepath.Join(dir, latest), nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
