// Package process serves predictions by spawning the external classifier
// script once per request. Requests are independent and may run concurrently;
// the numeric libraries are pinned to a single thread so concurrent
// invocations stay reproducible.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/classifier"
	"github.com/avinashm/careerpath/internal/logger"
)

const defaultTimeout = 30 * time.Second

// singleThreadEnv keeps predictions deterministic across concurrent requests.
var singleThreadEnv = []string{
	"OMP_NUM_THREADS=1",
	"MKL_NUM_THREADS=1",
}

// Config describes how to launch the external classifier.
type Config struct {
	// Interpreter is the executable that runs Script, e.g. python3.
	Interpreter string
	// Script is the prediction script path.
	Script string
	// Timeout bounds one invocation. Zero selects the default.
	Timeout time.Duration
}

// Classifier implements classifier.Predictor by delegating to the external
// process. It is constructed once and safe for concurrent use.
type Classifier struct {
	cfg Config
	log *zap.Logger

	// run is swapped out in tests.
	run func(ctx context.Context, payload string) ([]byte, error)
}

// New returns a process-backed classifier.
func New(cfg Config, log *zap.Logger) *Classifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Classifier{cfg: cfg, log: log}
	c.run = c.runScript

	return c
}

// Predict serializes the request as a single JSON argument, launches the
// classifier process and parses the last line of its output. A non-zero exit,
// unparsable output or timeout is a request-level failure: the error wraps
// classifier.ErrPrediction and the caller decides what to do with it.
func (c *Classifier) Predict(ctx context.Context, req *classifier.Request) (*classifier.Prediction, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", classifier.ErrPrediction)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", classifier.ErrPrediction, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := c.run(ctx, string(payload))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", classifier.ErrPrediction, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", classifier.ErrPrediction, err)
	}

	pred, err := classifier.ParseOutput(string(out))
	if err != nil {
		return nil, err
	}

	c.log.Debug("classifier invocation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("predicted_job_role", pred.PredictedJobRole),
		zap.Float64("match_percentage", pred.MatchPercentage),
	)

	return pred, nil
}

func (c *Classifier) runScript(ctx context.Context, payload string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.cfg.Interpreter, c.cfg.Script, payload)
	cmd.Env = append(os.Environ(), singleThreadEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("classifier process: %w (stderr: %s)",
			err, logger.TruncateForLog(stderr.String(), 200))
	}

	return stdout.Bytes(), nil
}
