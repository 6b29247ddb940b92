package main

import (
	"context"
	"time"

	"studyboard/internal/repository"
	"studyboard/internal/service"

	"github.com/spf13/cobra"
)

var reconcileTimeout time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute board and chat session counters from stored rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := setup()

		db, err := repository.Open(cfg, log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), reconcileTimeout)
		defer cancel()

		n, err := service.NewReconciler(repository.NewStore(db), log).Run(ctx)
		if err != nil {
			return err
		}
		log.WithField("counters", n).Info("✅ Usage counters reconciled")
		return nil
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", time.Minute, "Give up after this long")
}
