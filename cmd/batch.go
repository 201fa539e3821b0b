package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/logger"
	"github.com/avinashm/careerpath/internal/mapping"
	"github.com/avinashm/careerpath/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Encode the configured source datasets into the training corpus",
	Run: func(cmd *cobra.Command, _ []string) {
		batch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("output", "o", "", "corpus output file (overrides corpus-file from the config)")
}

func batch(cmd *cobra.Command) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	if len(config.Datasets) == 0 {
		log.Fatal("no datasets configured", zap.String("hint", "add a datasets section to the configuration file"))
	}

	store, err := mapping.Load(config.MappingFile, log)
	if err != nil {
		log.Fatal("loading the mapping table", zap.Error(err))
	}

	output := config.CorpusFile
	if flagOutput, _ := cmd.Flags().GetString("output"); flagOutput != "" {
		output = flagOutput
	}

	log.Info("starting batch ingestion",
		zap.Int("datasets", len(config.Datasets)),
		zap.String("output", output),
	)

	report, err := pipeline.New(store, log).Run(config.Datasets, output)
	if err != nil {
		log.Fatal("batch ingestion failed", zap.Error(err))
	}

	for _, ds := range report.Datasets {
		if ds.Skipped {
			log.Warn("dataset skipped", zap.String("dataset", ds.Name))
		}
	}

	for i, sample := range report.Sample {
		log.Debug("sample vector", zap.Int("index", i), zap.Any("vector", sample.Values()))
	}

	log.Info("batch ingestion finished",
		zap.Int("records", report.Records),
		zap.String("output", output),
	)
}
