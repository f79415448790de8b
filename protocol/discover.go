package protocol

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/emitter"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

// discoverCmd enumerates the source's streams and writes the catalog
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "not-set" {
			return fmt.Errorf("--config not passed")
		}
		return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}

		streams, err := connector.Discover(cmd.Context())
		if err != nil {
			return err
		}
		if len(streams) == 0 {
			return errors.New("no streams found in connector")
		}

		catalog := types.GetWrappedCatalog(streams)

		e := emitter.NewStdout(nil)
		if err := e.Catalog(catalog); err != nil {
			return err
		}
		if err := e.Close(); err != nil {
			return err
		}

		if streamsFile := viper.GetString(constants.StreamsPath); streamsFile != "" {
			if err := utils.WriteJSONFile(streamsFile, catalog); err != nil {
				return fmt.Errorf("failed to write streams file: %s", err)
			}
			logger.Infof("Catalog with %d streams written to %s", len(streams), streamsFile)
		}
		return nil
	},
}
