package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"practicecoach/internal/app"
	"practicecoach/internal/model"
	"practicecoach/internal/questionbank"
	"practicecoach/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the question bank into MongoDB",
	Long:  "Upserts every bank item by id. Without --file the embedded bank is used.",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("file", "f", "", "a question bank YAML file")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	file, _ := cmd.Flags().GetString("file")
	var items []model.BankItem
	if file != "" {
		items, err = questionbank.LoadFromFile(file)
	} else {
		items, err = questionbank.Default()
	}
	if err != nil {
		return err
	}

	client, db, err := app.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	n, err := app.SeedBank(ctx, repository.NewBankRepo(db), items, false)
	if err != nil {
		return err
	}

	log.Info("question bank seeded", zap.Int("items", len(items)), zap.Int64("upserted", n))
	fmt.Printf("seeded %d questions\n", len(items))
	return nil
}
