package abstract

import (
	"context"
	"fmt"
	"time"

	"github.com/reservoir-data/tap-tally/emitter"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
	"github.com/reservoir-data/tap-tally/utils/typeutils"
)

// AbstractDriver mediates between the protocol commands and a concrete
// driver: it owns sync-mode selection, the incremental bookmark lifecycle
// and per-stream failure isolation.
type AbstractDriver struct {
	driver DriverInterface
	state  *types.State
}

func NewAbstractDriver(_ context.Context, driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{driver: driver}
}

func (a *AbstractDriver) GetConfigRef() Config {
	return a.driver.GetConfigRef()
}

func (a *AbstractDriver) Spec() map[string]any {
	return a.driver.Spec()
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context) error {
	return a.driver.Setup(ctx)
}

func (a *AbstractDriver) SetupState(state *types.State) {
	a.state = state
	a.driver.SetupState(state)
}

// Discover assembles every stream the source exposes and picks its default
// sync mode: incremental when a cursor field exists, full refresh otherwise.
func (a *AbstractDriver) Discover(ctx context.Context) ([]*types.Stream, error) {
	streamNames, err := a.driver.GetStreamNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream names: %s", err)
	}

	streams := make([]*types.Stream, 0, len(streamNames))
	err = utils.ForEach(streamNames, func(name string) error {
		stream, err := a.driver.ProduceSchema(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to produce schema for stream %s: %s", name, err)
		}

		if stream.SupportedSyncModes.Exists(types.INCREMENTAL) {
			stream.SyncMode = types.INCREMENTAL
			if stream.CursorField == "" {
				if cursorFields := stream.AvailableCursorFields.Array(); len(cursorFields) > 0 {
					stream.CursorField = cursorFields[0]
				}
			}
		} else {
			stream.SyncMode = types.FULLREFRESH
		}
		streams = append(streams, stream)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return streams, nil
}

// Sync runs the selected streams sequentially. A fatal error on one stream
// is logged and aggregated; sibling streams still complete.
func (a *AbstractDriver) Sync(ctx context.Context, e emitter.Emitter, streams ...types.StreamInterface) error {
	syncFns := make([]func() error, 0, len(streams))
	for _, stream := range streams {
		syncFns = append(syncFns, func() error {
			logger.Infof("Reading stream %s in %s mode", stream.ID(), stream.GetSyncMode())
			streamStartTime := time.Now()

			err := a.syncStream(ctx, e, stream)
			if err != nil {
				logger.Errorf("Stream %s failed: %s", stream.ID(), err)
				return fmt.Errorf("stream %s: %s", stream.ID(), err)
			}

			logger.Infof("Finished reading stream %s in %s", stream.ID(), time.Since(streamStartTime).String())
			return nil
		})
	}
	return utils.ErrExecSequential(syncFns...)
}

func (a *AbstractDriver) syncStream(ctx context.Context, e emitter.Emitter, stream types.StreamInterface) error {
	if err := e.Schema(stream); err != nil {
		return err
	}

	if stream.GetSyncMode() == types.INCREMENTAL {
		return a.incremental(ctx, e, stream)
	}
	return a.fullRefresh(ctx, e, stream)
}

func (a *AbstractDriver) fullRefresh(ctx context.Context, e emitter.Emitter, stream types.StreamInterface) error {
	err := a.driver.ReadStream(ctx, stream, func(_ context.Context, record types.Record) error {
		return e.Record(stream, record)
	})
	if err != nil {
		return err
	}
	return e.State(a.state)
}

// incremental tracks the max cursor value across emitted records and writes
// it back as the stream's bookmark only after the stream completes, so a
// failed run never advances past unseen data.
func (a *AbstractDriver) incremental(ctx context.Context, e emitter.Emitter, stream types.StreamInterface) error {
	cursorField := stream.Cursor()
	prevBookmark := a.state.GetCursor(stream.Self(), cursorField)
	maxCursorValue := prevBookmark

	err := a.driver.StreamIncrementalChanges(ctx, stream, func(_ context.Context, record types.Record) error {
		if cursorValue := record[cursorField]; cursorValue != nil && typeutils.Compare(cursorValue, maxCursorValue) > 0 {
			maxCursorValue = cursorValue
		}
		return e.Record(stream, record)
	})
	if err != nil {
		return fmt.Errorf("incremental read failed (last bookmark: %v): %s", prevBookmark, err)
	}

	if maxCursorValue != nil {
		a.state.SetCursor(stream.Self(), cursorField, maxCursorValue)
	}
	return e.State(a.state)
}
