package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/logger"
	"github.com/avinashm/careerpath/internal/modelstore"
	"github.com/avinashm/careerpath/internal/storage"
	"github.com/avinashm/careerpath/internal/trainer"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Archive the active model, train a new one and record the version",
	Run: func(cmd *cobra.Command, _ []string) {
		retrain(cmd)
	},
}

func init() {
	rootCmd.AddCommand(retrainCmd)

	retrainCmd.Flags().String("dataset", "", "training corpus CSV (defaults to the newest upload in model.dataset-dir)")
}

func retrain(cmd *cobra.Command) {
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

	dataset, _ := cmd.Flags().GetString("dataset")
	if dataset == "" {
		dataset, err = modelstore.LatestCSV(config.Model.DatasetDir)
		if err != nil {
			log.Fatal("resolving the training dataset", zap.Error(err))
		}
	}

	manager, err := newManager(config, log)
	if err != nil {
		log.Fatal("opening the model store", zap.Error(err))
	}

	log.Info("starting retraining", zap.String("dataset", dataset))

	version, err := manager.Retrain(ctx, dataset)
	if err != nil {
		log.Fatal("retraining failed", zap.Error(err))
	}

	log.Info("model retrained successfully",
		zap.String("version_id", version.ID),
		zap.Float64("accuracy", version.Accuracy),
	)
}

func newManager(config *Config, log *zap.Logger) (*modelstore.Manager, error) {
	db, err := storage.Open(config.Database)
	if err != nil {
		return nil, err
	}

	store, err := modelstore.NewStore(db)
	if err != nil {
		return nil, err
	}

	runner := trainer.NewProcess(trainer.Config{
		Interpreter: config.Model.Interpreter,
		Script:      config.Model.TrainScript,
		Timeout:     config.Model.TrainTimeout,
	}, log)

	return modelstore.NewManager(store, runner, config.Model.Dir, config.Model.ArchiveDir, log), nil
}
