package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/avinashm/careerpath/internal/encoder"
)

// ErrPrediction marks request-level prediction failures. The serving process
// keeps running; only the request that hit the failure is reported.
var ErrPrediction = errors.New("prediction failed")

// Predictor is the narrow interface between the application and whatever
// serves the trained model.
type Predictor interface {
	Predict(ctx context.Context, req *Request) (*Prediction, error)
}

// Request is the single structured payload handed to the classifier: the
// validated raw education fields the model's own encoders expect, plus the
// feature vector produced by the shared encoder.
type Request struct {
	Degree           string     `json:"degree"`
	Specialization   string     `json:"specialization"`
	CGPA             float64    `json:"cgpa"`
	CGPAOutOf        string     `json:"cgpaOutOf"`
	YearOfGraduation int        `json:"yearOfGraduation"`
	Certifications   string     `json:"certifications"`
	Internship       string     `json:"internship"`
	Projects         int        `json:"projects"`
	Skills           []string   `json:"skills"`
	Features         [8]float64 `json:"features"`
}

// NewRequest assembles the classifier payload from a raw record and its
// encoded vector.
func NewRequest(rec encoder.RawEducationRecord, vec encoder.FeatureVector) *Request {
	skills := rec.Skills
	if skills == nil {
		skills = []string{}
	}

	return &Request{
		Degree:           strings.TrimSpace(rec.Degree),
		Specialization:   strings.TrimSpace(rec.Specialization),
		CGPA:             encoder.ParseFloat(rec.CGPA, 0),
		CGPAOutOf:        strings.TrimSpace(rec.CGPAOutOf),
		YearOfGraduation: vec.GraduationYear,
		Certifications:   rec.Certifications,
		Internship:       strings.TrimSpace(rec.Internship),
		Projects:         vec.ProjectCount,
		Skills:           skills,
		Features:         vec.Values(),
	}
}

// RoleMatch is one ranked candidate role.
type RoleMatch struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"`
}

// UnmarshalJSON accepts both the documented "score" key and the "confidence"
// key the deployed prediction script actually emits.
func (m *RoleMatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role       string   `json:"role"`
		Score      *float64 `json:"score"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	switch {
	case raw.Score != nil:
		m.Score = *raw.Score
	case raw.Confidence != nil:
		m.Score = *raw.Confidence
	}

	return nil
}

// Prediction is the structured result of one classifier invocation.
type Prediction struct {
	PredictedJobRole string      `json:"predicted_job_role"`
	MatchPercentage  float64     `json:"match_percentage"`
	TopMatches       []RoleMatch `json:"top_3_matches"`
	Status           string      `json:"status,omitempty"`
	Error            string      `json:"error,omitempty"`
}

// ParseOutput extracts the prediction from raw process output. The final
// non-empty line is the payload; anything before it is incidental diagnostics
// from the numeric libraries and is ignored.
func ParseOutput(raw string) (*Prediction, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return nil, fmt.Errorf("%w: empty classifier output", ErrPrediction)
	}

	var pred Prediction
	if err := json.Unmarshal([]byte(last), &pred); err != nil {
		return nil, fmt.Errorf("%w: parsing classifier output: %v", ErrPrediction, err)
	}

	if pred.Status == "error" {
		return nil, fmt.Errorf("%w: classifier reported: %s", ErrPrediction, pred.Error)
	}

	return &pred, nil
}
