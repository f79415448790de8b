package protocol

import (
	"github.com/spf13/cobra"

	"github.com/reservoir-data/tap-tally/emitter"
)

// specCmd emits the connector's config JSON schema
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(_ *cobra.Command, _ []string) error {
		e := emitter.NewStdout(nil)
		if err := e.Spec(connector.Spec()); err != nil {
			return err
		}
		return e.Close()
	},
}
