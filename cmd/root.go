package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avinashm/careerpath/internal/pipeline"
)

const (
	app = "careerpath"
)

type Config struct {
	MappingFile string                   `mapstructure:"mapping-file"`
	Database    string                   `mapstructure:"database"`
	CorpusFile  string                   `mapstructure:"corpus-file"`
	Datasets    []pipeline.DatasetConfig `mapstructure:"datasets"`
	Model       *ModelConfig             `mapstructure:"model"`
	AI          *AIConfig                `mapstructure:"ai"`
}

type ModelConfig struct {
	Dir            string        `mapstructure:"dir"`
	ArchiveDir     string        `mapstructure:"archive-dir"`
	DatasetDir     string        `mapstructure:"dataset-dir"`
	Interpreter    string        `mapstructure:"interpreter"`
	PredictScript  string        `mapstructure:"predict-script"`
	TrainScript    string        `mapstructure:"train-script"`
	PredictTimeout time.Duration `mapstructure:"predict-timeout"`
	TrainTimeout   time.Duration `mapstructure:"train-timeout"`
}

type AIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Model      string `mapstructure:"model"`
	APIKeyFile string `mapstructure:"api-key-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "careerpath predicts a job role from a student's academic profile and manages the trained model versions",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is careerpath.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("mapping-file", "model/mappings.json")
	viper.SetDefault("database", "careerpath.db")
	viper.SetDefault("corpus-file", "preprocessed_output.csv")
	viper.SetDefault("model.dir", "model")
	viper.SetDefault("model.archive-dir", "models_archive")
	viper.SetDefault("model.dataset-dir", "uploads/datasets")
	viper.SetDefault("model.interpreter", "python3")
	viper.SetDefault("model.predict-script", "scripts/predict_jobrole.py")
	viper.SetDefault("model.train-script", "scripts/admin_train.py")
	viper.SetDefault("model.predict-timeout", "30s")
	viper.SetDefault("model.train-timeout", "10m")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The defaults cover a full local layout, so a missing config file is
	// fine. A config file that exists but does not parse is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Model == nil {
		config.Model = &ModelConfig{}
	}

	return config, nil
}
