package protocol

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/drivers/abstract"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

var (
	configPath  string
	statePath   string
	streamsPath string
	noSave      bool
	syncTimeout int

	catalog   *types.Catalog
	state     *types.State
	commands  = []*cobra.Command{}
	connector *abstract.AbstractDriver
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tap-tally",
	Short: "Singer tap for the Tally forms API",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		viper.SetDefault(constants.ConfigFolder, ".")
		if configPath != "not-set" {
			configFolder := filepath.Dir(configPath)
			viper.Set(constants.ConfigFolder, configFolder)
			if !noSave {
				streamsPathResolved := utils.Ternary(streamsPath == "", filepath.Join(configFolder, "streams.json"), streamsPath).(string)
				statePathResolved := utils.Ternary(statePath == "", filepath.Join(configFolder, "state.json"), statePath).(string)
				viper.Set(constants.StreamsPath, streamsPathResolved)
				viper.Set(constants.StatePath, statePathResolved)
			}
		}
		viper.Set(constants.SyncID, uuid.New().String())

		// logger uses CONFIG_FOLDER
		logger.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'tap-tally --help' to display usage guide", args[0])
		}
		return nil
	},
}

func CreateRootCommand(driver abstract.DriverInterface) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = abstract.NewAbstractDriver(RootCmd.Context(), driver)
	return RootCmd
}

// selectedStreams validates catalog entries against the source streams and
// prunes state entries of unselected streams.
func selectedStreams(catalog *types.Catalog, sourceStreams []*types.Stream, state *types.State) ([]types.StreamInterface, error) {
	sourceMap := types.StreamsToMap(sourceStreams...)

	selectedMap := make(map[string]bool)
	for namespace, streamsMetadata := range catalog.SelectedStreams {
		for _, streamMetadata := range streamsMetadata {
			id := streamMetadata.StreamName
			if namespace != "" {
				id = fmt.Sprintf("%s.%s", namespace, streamMetadata.StreamName)
			}
			selectedMap[id] = true
		}
	}

	validStreams := []types.StreamInterface{}
	for _, elem := range catalog.Streams {
		if catalog.SelectedStreams != nil && !selectedMap[elem.ID()] {
			logger.Debugf("Skipping stream %s; not in selected streams.", elem.ID())
			continue
		}

		source, found := sourceMap[elem.ID()]
		if !found {
			logger.Warnf("Skipping; Configured Stream %s not found in source", elem.ID())
			continue
		}
		if err := elem.Validate(source); err != nil {
			logger.Warnf("Skipping; Configured Stream %s found invalid due to reason: %s", elem.ID(), err)
			continue
		}

		validStreams = append(validStreams, elem)
	}
	if len(validStreams) == 0 {
		return nil, fmt.Errorf("no valid streams found in catalog")
	}

	// drop state of streams no longer selected
	validIDs := make(map[string]bool)
	streamIDs := make([]string, 0, len(validStreams))
	for _, stream := range validStreams {
		validIDs[stream.ID()] = true
		streamIDs = append(streamIDs, stream.ID())
	}
	state.Lock()
	retained := []*types.StreamState{}
	for _, streamState := range state.Streams {
		id := streamState.Stream
		if streamState.Namespace != "" {
			id = fmt.Sprintf("%s.%s", streamState.Namespace, streamState.Stream)
		}
		if validIDs[id] {
			retained = append(retained, streamState)
		}
	}
	state.Streams = retained
	state.Unlock()

	logger.Infof("Valid selected streams are %s", strings.Join(streamIDs, ", "))
	return validStreams, nil
}

func loadState() error {
	state = types.NewState()
	if statePath != "" {
		if err := utils.UnmarshalFile(statePath, state, false); err != nil {
			return err
		}
	}
	state.RWMutex = &sync.RWMutex{}
	if state.Type == "" {
		state.SetType(types.StreamType)
	}
	return nil
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, syncCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "not-set", "(Required) Config for connector")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "catalog", "", "", "Path to the streams file for the connector")
	RootCmd.PersistentFlags().StringVarP(&streamsPath, "streams", "", "", "Path to the streams file for the connector")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State for connector")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip writing artifact files")
	RootCmd.PersistentFlags().IntVarP(&syncTimeout, "timeout", "", 0, "(Optional) Overall run timeout in seconds; 0 disables it")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
