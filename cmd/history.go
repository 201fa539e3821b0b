package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/history"
	"github.com/avinashm/careerpath/internal/logger"
	"github.com/avinashm/careerpath/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded predictions, or attach feedback to one of them",
	Run: func(cmd *cobra.Command, _ []string) {
		showHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("rate", "", "record id to rate")
	historyCmd.Flags().Int("rating", 0, "rating from 1 to 5, used with --rate")
	historyCmd.Flags().String("comment", "", "free-form comment, used with --rate")
	historyCmd.Flags().String("flag", "", "record id to mark for review")
}

func showHistory(cmd *cobra.Command) {
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

	db, err := storage.Open(config.Database)
	if err != nil {
		log.Fatal("opening the database", zap.Error(err))
	}

	store, err := history.NewStore(db)
	if err != nil {
		log.Fatal("opening the prediction history", zap.Error(err))
	}

	if id, _ := cmd.Flags().GetString("rate"); id != "" {
		rating, _ := cmd.Flags().GetInt("rating")
		if rating < 1 || rating > 5 {
			log.Fatal("rating must be between 1 and 5", zap.Int("rating", rating))
		}
		comment, _ := cmd.Flags().GetString("comment")

		if err := store.Feedback(ctx, id, rating, comment); err != nil {
			log.Fatal("recording feedback", zap.Error(err))
		}
		log.Info("feedback recorded", zap.String("record_id", id), zap.Int("rating", rating))
		return
	}

	if id, _ := cmd.Flags().GetString("flag"); id != "" {
		if err := store.Flag(ctx, id); err != nil {
			log.Fatal("flagging the prediction", zap.Error(err))
		}
		log.Info("prediction flagged for review", zap.String("record_id", id))
		return
	}

	records, err := store.List(ctx)
	if err != nil {
		log.Fatal("listing the prediction history", zap.Error(err))
	}

	if len(records) == 0 {
		log.Info("no predictions recorded yet")
		return
	}

	for _, rec := range records {
		marker := " "
		if rec.IsFlagged {
			marker = "!"
		}
		line := fmt.Sprintf("%s %s  %s  %s -> %s (%.1f%%)",
			marker, rec.ID, rec.CreatedAt.Format(time.RFC3339),
			rec.Degree, rec.PredictedJobRole, rec.MatchPercentage)
		if rec.UserRating > 0 {
			line += fmt.Sprintf("  rated %d/5", rec.UserRating)
		}
		if c := strings.TrimSpace(rec.UserComment); c != "" {
			line += fmt.Sprintf("  %q", c)
		}
		fmt.Println(line)
	}
}
