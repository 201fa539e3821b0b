package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/avinashm/careerpath/internal/logger"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <version-id>",
	Short: "Restore an archived model version into the active slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		restore(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func restore(cmd *cobra.Command, versionID string) {
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

	if autoApprove, _ := cmd.Flags().GetBool("yes"); !autoApprove {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Overwrite the active model with version %s?", versionID),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		if action != PromptYes {
			log.Info("exiting", zap.String("reason", "restore not confirmed"))
			return
		}
	}

	manager, err := newManager(config, log)
	if err != nil {
		log.Fatal("opening the model store", zap.Error(err))
	}

	version, err := manager.Restore(ctx, versionID)
	if err != nil {
		log.Fatal("restore failed", zap.Error(err))
	}

	log.Info("model restored successfully",
		zap.String("version_id", version.ID),
		zap.Float64("accuracy", version.Accuracy),
	)
}
