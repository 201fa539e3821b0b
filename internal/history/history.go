// Package history persists the prediction records attached to a student's
// profile. A record is immutable once written except for the user feedback
// fields and the moderation flag.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avinashm/careerpath/internal/classifier"
)

// ErrNotFound reports a feedback or flag request for an unknown record.
var ErrNotFound = errors.New("prediction record not found")

// PredictionRecord captures one submitted profile together with the
// prediction it produced.
type PredictionRecord struct {
	ID               string `gorm:"primaryKey"`
	Degree           string
	Specialization   string
	CGPA             float64
	CGPAOutOf        string
	YearOfGraduation int
	Certifications   string
	Internship       string
	Projects         int
	Skills           string
	PredictedJobRole string
	MatchPercentage  float64
	// TopMatches holds the ranked candidate roles as JSON.
	TopMatches  string
	UserRating  int
	UserComment string
	IsFlagged   bool
	CreatedAt   time.Time
}

// Matches decodes the stored ranked roles.
func (r *PredictionRecord) Matches() ([]classifier.RoleMatch, error) {
	if strings.TrimSpace(r.TopMatches) == "" {
		return nil, nil
	}

	var matches []classifier.RoleMatch
	if err := json.Unmarshal([]byte(r.TopMatches), &matches); err != nil {
		return nil, fmt.Errorf("decoding stored matches: %w", err)
	}

	return matches, nil
}

// Store persists prediction records.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&PredictionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating prediction history: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Append stores the outcome of one prediction and returns the created record.
func (s *Store) Append(ctx context.Context, req *classifier.Request, pred *classifier.Prediction) (*PredictionRecord, error) {
	matches, err := json.Marshal(pred.TopMatches)
	if err != nil {
		return nil, fmt.Errorf("encoding matches: %w", err)
	}

	rec := &PredictionRecord{
		ID:               uuid.NewString(),
		Degree:           req.Degree,
		Specialization:   req.Specialization,
		CGPA:             req.CGPA,
		CGPAOutOf:        req.CGPAOutOf,
		YearOfGraduation: req.YearOfGraduation,
		Certifications:   req.Certifications,
		Internship:       req.Internship,
		Projects:         req.Projects,
		Skills:           strings.Join(req.Skills, ","),
		PredictedJobRole: pred.PredictedJobRole,
		MatchPercentage:  pred.MatchPercentage,
		TopMatches:       string(matches),
		CreatedAt:        s.now(),
	}

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("storing prediction record: %w", err)
	}

	return rec, nil
}

// List returns every prediction record, most recent first.
func (s *Store) List(ctx context.Context) ([]PredictionRecord, error) {
	var records []PredictionRecord
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing prediction history: %w", err)
	}

	return records, nil
}

// Feedback attaches a user rating and comment to a record. These are the only
// post-creation mutations besides Flag.
func (s *Store) Feedback(ctx context.Context, id string, rating int, comment string) error {
	res := s.db.WithContext(ctx).Model(&PredictionRecord{}).Where("id = ?", id).
		Updates(map[string]any{
			"user_rating":  rating,
			"user_comment": comment,
		})
	if res.Error != nil {
		return fmt.Errorf("storing feedback: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Flag marks a record for moderation review.
func (s *Store) Flag(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&PredictionRecord{}).Where("id = ?", id).
		Update("is_flagged", true)
	if res.Error != nil {
		return fmt.Errorf("flagging prediction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}
