package trainer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestParseAccuracy(t *testing.T) {
	cases := []struct {
		output string
		want   float64
		ok     bool
	}{
		{"Training Complete. Accuracy: 87.5%", 87.5, true},
		{"Dataset loaded\nAccuracy: 91\nModel saved", 91, true},
		{"Accuracy:88.25", 88.25, true},
		{"no accuracy here", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseAccuracy(tc.output)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseAccuracy(%q) = (%v, %v), want (%v, %v)", tc.output, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTrainParsesAccuracy(t *testing.T) {
	p := NewProcess(Config{Interpreter: "python3", Script: "train.py"}, zap.NewNop())
	p.run = func(_ context.Context, datasetPath string) ([]byte, error) {
		if datasetPath != "corpus.csv" {
			t.Fatalf("unexpected dataset path: %q", datasetPath)
		}
		return []byte("Dataset loaded: corpus.csv\nTraining Complete. Accuracy: 87.5%\n"), nil
	}

	result, err := p.Train(context.Background(), "corpus.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Accuracy != 87.5 {
		t.Fatalf("unexpected accuracy: %v", result.Accuracy)
	}
}

func TestTrainFailsOnNonZeroExit(t *testing.T) {
	p := NewProcess(Config{}, zap.NewNop())
	p.run = func(context.Context, string) ([]byte, error) {
		return []byte("Error: CSV file not found"), errors.New("exit status 1")
	}

	if _, err := p.Train(context.Background(), "corpus.csv"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestTrainFailsWithoutAccuracyToken(t *testing.T) {
	p := NewProcess(Config{}, zap.NewNop())
	p.run = func(context.Context, string) ([]byte, error) {
		return []byte("Model saved\n"), nil
	}

	if _, err := p.Train(context.Background(), "corpus.csv"); err == nil {
		t.Fatal("expected an error for missing accuracy output")
	}
}
