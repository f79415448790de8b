package protocol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reservoir-data/tap-tally/emitter"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
)

// checkCmd verifies the configured credential against the live API. A failed
// check is reported as a CONNECTION_STATUS row, not a process error.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if configPath == "not-set" {
			return fmt.Errorf("--config not passed")
		}
		return utils.UnmarshalFile(configPath, connector.GetConfigRef(), true)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		err := connector.Setup(cmd.Context())

		status := types.ConnectionSucceed
		message := ""
		if err != nil {
			status = types.ConnectionFailed
			message = err.Error()
		}

		e := emitter.NewStdout(nil)
		if err := e.ConnectionStatus(status, message); err != nil {
			return err
		}
		return e.Close()
	},
}
