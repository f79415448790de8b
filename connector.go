package tap

import (
	"os"

	"github.com/reservoir-data/tap-tally/drivers/abstract"
	"github.com/reservoir-data/tap-tally/protocol"
	"github.com/reservoir-data/tap-tally/utils/logger"
	"github.com/reservoir-data/tap-tally/utils/safego"
)

// RegisterDriver wires a driver into the protocol commands and runs the CLI.
func RegisterDriver(driver abstract.DriverInterface) {
	defer safego.Recovery(true)

	err := protocol.CreateRootCommand(driver).Execute()
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
