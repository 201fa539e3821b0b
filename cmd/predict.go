package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/ai"
	"github.com/avinashm/careerpath/internal/ai/gemini"
	"github.com/avinashm/careerpath/internal/classifier"
	"github.com/avinashm/careerpath/internal/classifier/process"
	"github.com/avinashm/careerpath/internal/encoder"
	"github.com/avinashm/careerpath/internal/history"
	"github.com/avinashm/careerpath/internal/logger"
	"github.com/avinashm/careerpath/internal/mapping"
	"github.com/avinashm/careerpath/internal/secrets"
	"github.com/avinashm/careerpath/internal/storage"
)

var validCGPAScales = []string{"4", "5", "10"}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict a job role for one student profile and record the result",
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringP("profile", "p", "", "path to a JSON file with the student profile")
	predictCmd.Flags().String("degree", "", "degree, e.g. B.Tech")
	predictCmd.Flags().String("specialization", "", "specialization, e.g. Computer Science")
	predictCmd.Flags().String("cgpa", "", "CGPA value")
	predictCmd.Flags().String("cgpa-out-of", "10", "CGPA scale denominator: 4, 5 or 10")
	predictCmd.Flags().String("year", "", "year of graduation")
	predictCmd.Flags().String("certifications", "", "comma separated certification list")
	predictCmd.Flags().String("internship", "No", "internship experience: Yes or No")
	predictCmd.Flags().String("projects", "0", "number of completed projects")
	predictCmd.Flags().StringSlice("skills", nil, "skills list")
	predictCmd.Flags().Bool("no-history", false, "do not record the prediction in the history store")
}

func predict(cmd *cobra.Command) {
	ctx := context.Background()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	rec, err := collectProfile(cmd)
	if err != nil {
		log.Fatal("reading the student profile", zap.Error(err))
	}

	if err := validateProfile(rec); err != nil {
		log.Fatal("invalid student profile", zap.Error(err))
	}

	store, err := mapping.Load(config.MappingFile, log)
	if err != nil {
		log.Fatal("loading the mapping table", zap.Error(err))
	}

	vector := encoder.Encode(rec, store, encoder.LiveSourceFlag)
	request := classifier.NewRequest(rec, vector)

	log.Debug("profile encoded", zap.Any("vector", vector.Values()))

	predictor := process.New(process.Config{
		Interpreter: config.Model.Interpreter,
		Script:      config.Model.PredictScript,
		Timeout:     config.Model.PredictTimeout,
	}, log)

	prediction, err := predictor.Predict(ctx, request)
	if err != nil {
		log.Fatal("prediction failed", zap.Error(err))
	}

	log.Info("prediction finished",
		zap.String("predicted_job_role", prediction.PredictedJobRole),
		zap.Float64("match_percentage", prediction.MatchPercentage),
	)

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		record, err := appendHistory(ctx, config, request, prediction)
		if err != nil {
			log.Fatal("recording the prediction", zap.Error(err))
		}
		log.Info("prediction recorded", zap.String("record_id", record.ID))
	}

	pretty, _ := json.MarshalIndent(prediction, "", "  ")
	fmt.Println(string(pretty))

	advisePrediction(ctx, config, request, prediction, log)
}

// collectProfile builds the raw record from the profile file or from flags.
// The profile file wins; flags fill individual fields for quick local use.
func collectProfile(cmd *cobra.Command) (encoder.RawEducationRecord, error) {
	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return encoder.RawEducationRecord{}, fmt.Errorf("reading profile file: %w", err)
		}

		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return encoder.RawEducationRecord{}, fmt.Errorf("parsing profile file: %w", err)
		}

		// Certifications may arrive as a list; the encoder counts a comma
		// separated string.
		if list, ok := fields["certifications"].([]any); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				parts = append(parts, fmt.Sprint(item))
			}
			fields["certifications"] = strings.Join(parts, ",")
		}

		return encoder.DecodeRecord(fields)
	}

	skills, _ := cmd.Flags().GetStringSlice("skills")

	get := func(name string) string {
		value, _ := cmd.Flags().GetString(name)
		return value
	}

	return encoder.RawEducationRecord{
		Degree:           get("degree"),
		Specialization:   get("specialization"),
		CGPA:             get("cgpa"),
		CGPAOutOf:        get("cgpa-out-of"),
		YearOfGraduation: get("year"),
		Certifications:   get("certifications"),
		Internship:       get("internship"),
		Projects:         get("projects"),
		Skills:           skills,
	}, nil
}

func validateProfile(rec encoder.RawEducationRecord) error {
	if strings.TrimSpace(rec.Degree) == "" {
		return errors.New("degree is required")
	}
	if strings.TrimSpace(rec.Specialization) == "" {
		return errors.New("specialization is required")
	}
	if strings.TrimSpace(rec.CGPA) == "" {
		return errors.New("cgpa is required")
	}

	scale := strings.TrimSpace(rec.CGPAOutOf)
	valid := false
	for _, allowed := range validCGPAScales {
		if scale == allowed {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("cgpaOutOf must be one of %s, got %q",
			strings.Join(validCGPAScales, ", "), rec.CGPAOutOf)
	}

	intern := strings.TrimSpace(rec.Internship)
	if !strings.EqualFold(intern, "yes") && !strings.EqualFold(intern, "no") {
		return fmt.Errorf("internship must be Yes or No, got %q", rec.Internship)
	}

	return nil
}

func appendHistory(ctx context.Context, config *Config, req *classifier.Request, pred *classifier.Prediction) (*history.PredictionRecord, error) {
	db, err := storage.Open(config.Database)
	if err != nil {
		return nil, err
	}

	store, err := history.NewStore(db)
	if err != nil {
		return nil, err
	}

	return store.Append(ctx, req, pred)
}

// advisePrediction is best-effort: advice failures are logged and never fail
// the predict command.
func advisePrediction(ctx context.Context, config *Config, req *classifier.Request, pred *classifier.Prediction, log *zap.Logger) {
	advisor, err := newAdvisor(ctx, config.AI, log)
	if err != nil {
		log.Debug("career advice disabled", zap.Error(err))
		return
	}
	if advisor == nil {
		return
	}

	advice, err := advisor.Advise(ctx, req, pred)
	if err != nil {
		log.Warn("generating career advice failed", zap.Error(err))
		return
	}

	fmt.Printf("\n%s\n", advice.Summary)
	for _, s := range advice.Strengths {
		fmt.Printf("  + %s\n", s)
	}
	for _, g := range advice.Gaps {
		fmt.Printf("  - %s\n", g)
	}
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	advisorLogger := log.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewAdvisor(generator, advisorLogger, 0), nil
}
