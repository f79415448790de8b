package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/emitter"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

// syncCmd extracts the selected streams and emits protocol rows
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "sync command",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "not-set" {
			return fmt.Errorf("--config not passed")
		} else if streamsPath == "" {
			return fmt.Errorf("--streams not passed")
		}

		if err := utils.UnmarshalFile(configPath, connector.GetConfigRef(), true); err != nil {
			return err
		}

		catalog = &types.Catalog{}
		if err := utils.UnmarshalFile(streamsPath, catalog, false); err != nil {
			return err
		}

		return loadState()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncStartTime := time.Now()
		logger.Infof("Starting sync %s", viper.GetString(constants.SyncID))

		ctx := cmd.Context()
		if syncTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(syncTimeout)*time.Second)
			defer cancel()
		}

		if err := connector.Setup(ctx); err != nil {
			return err
		}

		sourceStreams, err := connector.Discover(ctx)
		if err != nil {
			return err
		}

		validStreams, err := selectedStreams(catalog, sourceStreams, state)
		if err != nil {
			return err
		}

		connector.SetupState(state)

		e := emitter.NewStdout(nil)
		syncErr := connector.Sync(ctx, e, validStreams...)

		if !state.IsZero() {
			if err := e.State(state); err != nil {
				logger.Errorf("failed to emit final state: %s", err)
			}
		}

		totalRecords := e.TotalRecords()
		if err := e.Close(); err != nil {
			return err
		}

		logger.Infof("Total records read: %d in %s", totalRecords, time.Since(syncStartTime).String())
		return syncErr
	},
}
