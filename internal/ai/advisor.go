package ai

import (
	"context"

	"github.com/avinashm/careerpath/internal/classifier"
)

// Advice is a short generated commentary on a prediction: what supports the
// predicted role and what the student could still work on.
type Advice struct {
	Summary   string
	Strengths []string
	Gaps      []string
	Raw       string
}

// Advisor generates career advice for one prediction.
type Advisor interface {
	Advise(ctx context.Context, req *classifier.Request, pred *classifier.Prediction) (*Advice, error)
}
