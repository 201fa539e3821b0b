package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avinashm/careerpath/internal/classifier"
	"github.com/avinashm/careerpath/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	store, err := NewStore(db)
	require.NoError(t, err)

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	return store
}

func testPrediction(role string) (*classifier.Request, *classifier.Prediction) {
	req := &classifier.Request{
		Degree:         "B.Tech",
		Specialization: "CSE",
		CGPA:           8.5,
		CGPAOutOf:      "10",
		Internship:     "Yes",
		Projects:       3,
		Skills:         []string{"Go", "SQL"},
	}
	pred := &classifier.Prediction{
		PredictedJobRole: role,
		MatchPercentage:  72.4,
		TopMatches: []classifier.RoleMatch{
			{Role: role, Score: 72.4},
			{Role: "Web Developer", Score: 12.2},
		},
	}

	return req, pred
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	firstReq, firstPred := testPrediction("Data Analyst")
	first, err := store.Append(ctx, firstReq, firstPred)
	require.NoError(t, err)
	secondReq, secondPred := testPrediction("ML Engineer")
	second, err := store.Append(ctx, secondReq, secondPred)
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	require.Equal(t, second.ID, records[0].ID)
	require.Equal(t, first.ID, records[1].ID)
	require.Equal(t, "Go,SQL", records[0].Skills)

	matches, err := records[0].Matches()
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "ML Engineer", matches[0].Role)
}

func TestFeedbackMutatesOnlyFeedbackFields(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	req, pred := testPrediction("Data Analyst")
	rec, err := store.Append(ctx, req, pred)
	require.NoError(t, err)

	require.NoError(t, store.Feedback(ctx, rec.ID, 4, "pretty close"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, records[0].UserRating)
	require.Equal(t, "pretty close", records[0].UserComment)
	require.Equal(t, "Data Analyst", records[0].PredictedJobRole)
}

func TestFlag(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	req, pred := testPrediction("Data Analyst")
	rec, err := store.Append(ctx, req, pred)
	require.NoError(t, err)

	require.NoError(t, store.Flag(ctx, rec.ID))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.True(t, records[0].IsFlagged)
}

func TestFeedbackUnknownRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.Feedback(context.Background(), "no-such-id", 5, "")
	require.ErrorIs(t, err, ErrNotFound)

	err = store.Flag(context.Background(), "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)
}
