package abstract

import (
	"context"

	"github.com/reservoir-data/tap-tally/types"
)

// MessageFn receives one record from the driver's extraction loop.
type MessageFn func(ctx context.Context, record types.Record) error

type Config interface {
	Validate() error
}

// DriverInterface is the contract a source connector implements; the
// abstract layer mediates between it and the protocol commands.
type DriverInterface interface {
	GetConfigRef() Config
	Spec() map[string]any
	Type() string
	// setup & state
	Setup(ctx context.Context) error
	SetupState(state *types.State)
	MaxRetries() int
	// discover
	GetStreamNames(ctx context.Context) ([]string, error)
	ProduceSchema(ctx context.Context, stream string) (*types.Stream, error)
	// sync
	ReadStream(ctx context.Context, stream types.StreamInterface, processFn MessageFn) error
	StreamIncrementalChanges(ctx context.Context, stream types.StreamInterface, processFn MessageFn) error
}
