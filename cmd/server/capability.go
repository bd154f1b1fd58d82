package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"practicecoach/internal/app"
	"practicecoach/internal/model"
	"practicecoach/internal/service"
)

var capabilityCmd = &cobra.Command{
	Use:   "capability",
	Short: "Manage the premium capability flag",
}

var capabilityEnforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Disable premium mode if this month's AI spend reached the threshold",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCapability((*service.CostService).EnforceCapabilityGate)
	},
}

var capabilityResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Re-enable premium mode at the start of a billing period",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCapability((*service.CostService).ResetCapability)
	},
}

func init() {
	capabilityCmd.AddCommand(capabilityEnforceCmd, capabilityResetCmd)
	rootCmd.AddCommand(capabilityCmd)
}

func runCapability(op func(*service.CostService, context.Context) (*model.CapabilityAudit, error)) error {
	ctx := context.Background()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	client, db, err := app.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	cost := app.NewCostService(cfg, app.NewRepos(db), loc, log)
	audit, err := op(cost, ctx)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(audit, "", "  ")
	fmt.Println(string(out))
	return nil
}
