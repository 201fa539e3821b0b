// Package trainer runs the external training process and extracts the
// achieved accuracy from its output. The training algorithm itself is opaque:
// the script accepts a CSV corpus path and, on success, writes the model
// artifact into the configured model directory.
package trainer

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/logger"
)

const defaultTimeout = 10 * time.Minute

var accuracyRe = regexp.MustCompile(`Accuracy:\s*(\d+(?:\.\d+)?)`)

// Result reports one completed training run.
type Result struct {
	// Accuracy is the figure the trainer printed, in percent.
	Accuracy float64
	// Output is the combined process output, kept for auditing.
	Output string
}

// Runner trains a model from a CSV corpus. On failure no usable artifact is
// assumed to exist.
type Runner interface {
	Train(ctx context.Context, datasetPath string) (*Result, error)
}

// Config describes how to launch the external trainer.
type Config struct {
	Interpreter string
	Script      string
	// Timeout bounds one training run. Zero selects the default.
	Timeout time.Duration
}

// Process is the exec-based Runner.
type Process struct {
	cfg Config
	log *zap.Logger

	// run is swapped out in tests.
	run func(ctx context.Context, datasetPath string) ([]byte, error)
}

func NewProcess(cfg Config, log *zap.Logger) *Process {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	p := &Process{cfg: cfg, log: log}
	p.run = p.runScript

	return p
}

// Train launches the training script against datasetPath and parses the
// accuracy token from its output. A non-zero exit or a missing accuracy
// figure is a failure.
func (p *Process) Train(ctx context.Context, datasetPath string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	p.log.Info("starting training run", zap.String("dataset", datasetPath))

	start := time.Now()
	out, err := p.run(ctx, datasetPath)
	output := string(out)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("training timed out after %s", p.cfg.Timeout)
		}
		return nil, fmt.Errorf("training process: %w (output: %s)",
			err, logger.TruncateForLog(output, 200))
	}

	accuracy, ok := ParseAccuracy(output)
	if !ok {
		return nil, fmt.Errorf("training output contains no accuracy figure: %s",
			logger.TruncateForLog(output, 200))
	}

	p.log.Info("training run finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Float64("accuracy", accuracy),
	)

	return &Result{Accuracy: accuracy, Output: output}, nil
}

func (p *Process) runScript(ctx context.Context, datasetPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.cfg.Interpreter, p.cfg.Script, datasetPath)
	return cmd.CombinedOutput()
}

// ParseAccuracy extracts the "Accuracy: <float>" token from trainer output.
func ParseAccuracy(output string) (float64, bool) {
	match := accuracyRe.FindStringSubmatch(output)
	if match == nil {
		return 0, false
	}

	accuracy, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}

	return accuracy, true
}
