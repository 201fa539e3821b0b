package modelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ModelVersion is the retraining record: the audit entry for one trained
// artifact. Archived copies on disk are immutable; only the active flag
// changes after creation, and exactly one version holds it at any time.
type ModelVersion struct {
	ID        string `gorm:"primaryKey"`
	FileName  string
	Accuracy  float64
	TrainedAt time.Time
	ModelPath string
	IsActive  bool
}

// Store persists retraining records.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ModelVersion{}); err != nil {
		return nil, fmt.Errorf("migrating model versions: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateActive inserts a new record and makes it the single active version.
// The deactivation of every other record and the insert happen in one
// transaction, so there is no window with zero or two active versions.
func (s *Store) CreateActive(ctx context.Context, v *ModelVersion) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ModelVersion{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		v.IsActive = true
		return tx.Create(v).Error
	})
}

// Activate makes the version with the given ID the single active one.
func (s *Store) Activate(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ModelVersion{}).Where("id = ?", id).Update("is_active", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionNotFound
		}

		return tx.Model(&ModelVersion{}).Where("id <> ?", id).
			Update("is_active", false).Error
	})
}

// Get returns one version record.
func (s *Store) Get(ctx context.Context, id string) (*ModelVersion, error) {
	var v ModelVersion
	err := s.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
		}
		return nil, fmt.Errorf("loading model version %s: %w", id, err)
	}

	return &v, nil
}

// Active returns the currently active version, or nil when none exists.
func (s *Store) Active(ctx context.Context) (*ModelVersion, error) {
	var v ModelVersion
	err := s.db.WithContext(ctx).First(&v, "is_active = ?", true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading active model version: %w", err)
	}

	return &v, nil
}

// List returns every version record, most recent first.
func (s *Store) List(ctx context.Context) ([]ModelVersion, error) {
	var versions []ModelVersion
	err := s.db.WithContext(ctx).Order("trained_at DESC").Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("listing model versions: %w", err)
	}

	return versions, nil
}
