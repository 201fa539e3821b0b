package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/ai"
	"github.com/avinashm/careerpath/internal/classifier"
	"github.com/avinashm/careerpath/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

const defaultMaxLogLength = 200

const promptTemplate = `You are a career counselor for students.
A classifier predicted job roles for the following academic profile.

Profile:
{{PROFILE_JSON}}

Prediction:
{{PREDICTION_JSON}}

Respond with a single JSON object, no prose around it:
{"summary": "<2-3 sentences on why the predicted role fits>",
 "strengths": ["<profile aspects supporting the role>"],
 "gaps": ["<concrete improvements that would raise the match>"]}

JSON Response:`

// Advisor generates career advice for predictions via Gemini.
type Advisor struct {
	generator contentGenerator
	log       *zap.Logger
	maxLogLen int
}

func NewAdvisor(generator contentGenerator, log *zap.Logger, maxLogLength int) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Advisor{
		generator: generator,
		log:       log,
		maxLogLen: maxLogLength,
	}
}

func (a *Advisor) Advise(ctx context.Context, req *classifier.Request, pred *classifier.Prediction) (*ai.Advice, error) {
	if req == nil {
		return nil, fmt.Errorf("profile request is required")
	}
	if pred == nil {
		return nil, fmt.Errorf("prediction is required")
	}

	profileJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	predictionJSON, err := json.MarshalIndent(pred, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal prediction payload: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), string(predictionJSON))

	a.log.Debug("gemini advice request",
		zap.String("predicted_job_role", pred.PredictedJobRole),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.log.Debug("gemini advice response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	advice, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	advice.Raw = raw
	return advice, nil
}

func buildPrompt(profileJSON, predictionJSON string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE_JSON}}", profileJSON)
	return strings.ReplaceAll(prompt, "{{PREDICTION_JSON}}", predictionJSON)
}

func parseResponse(raw string) (*ai.Advice, error) {
	cleaned := extractJSON(raw)

	var data struct {
		Summary   string   `json:"summary"`
		Strengths []string `json:"strengths"`
		Gaps      []string `json:"gaps"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.Advice{
		Summary:   strings.TrimSpace(data.Summary),
		Strengths: data.Strengths,
		Gaps:      data.Gaps,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
