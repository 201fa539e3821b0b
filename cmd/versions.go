package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/logger"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the retraining history, most recent first",
	Run: func(_ *cobra.Command, _ []string) {
		versions()
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func versions() {
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

	manager, err := newManager(config, log)
	if err != nil {
		log.Fatal("opening the model store", zap.Error(err))
	}

	list, err := manager.List(ctx)
	if err != nil {
		log.Fatal("listing model versions", zap.Error(err))
	}

	if len(list) == 0 {
		log.Info("no model versions recorded yet")
		return
	}

	for _, v := range list {
		marker := " "
		if v.IsActive {
			marker = "*"
		}
		fmt.Printf("%s %s  trained %s  accuracy %.2f  dataset %s\n",
			marker, v.ID, v.TrainedAt.Format(time.RFC3339), v.Accuracy, v.FileName)
	}
}
