package abstract

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservoir-data/tap-tally/emitter"
	"github.com/reservoir-data/tap-tally/types"
)

type fakeConfig struct{}

func (f *fakeConfig) Validate() error { return nil }

// fakeDriver serves canned records per stream and fails on demand.
type fakeDriver struct {
	records map[string][]types.Record
	failing map[string]error
}

func (f *fakeDriver) GetConfigRef() Config          { return &fakeConfig{} }
func (f *fakeDriver) Spec() map[string]any          { return map[string]any{"type": "object"} }
func (f *fakeDriver) Type() string                  { return "fake" }
func (f *fakeDriver) Setup(_ context.Context) error { return nil }
func (f *fakeDriver) SetupState(_ *types.State)     {}
func (f *fakeDriver) MaxRetries() int               { return 1 }

func (f *fakeDriver) GetStreamNames(_ context.Context) ([]string, error) {
	names := []string{}
	for name := range f.records {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeDriver) ProduceSchema(_ context.Context, name string) (*types.Stream, error) {
	stream := types.NewStream(name, "").
		WithSyncMode(types.FULLREFRESH).
		WithPrimaryKey("id")
	if name != "plain" {
		stream.WithCursorField("updatedAt")
	}
	stream.UpsertField("id", types.STRING, false)
	return stream, nil
}

func (f *fakeDriver) serve(ctx context.Context, stream types.StreamInterface, processFn MessageFn) error {
	if err, failing := f.failing[stream.Name()]; failing {
		return err
	}
	for _, record := range f.records[stream.Name()] {
		if err := processFn(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeDriver) ReadStream(ctx context.Context, stream types.StreamInterface, processFn MessageFn) error {
	return f.serve(ctx, stream, processFn)
}

func (f *fakeDriver) StreamIncrementalChanges(ctx context.Context, stream types.StreamInterface, processFn MessageFn) error {
	return f.serve(ctx, stream, processFn)
}

func configured(t *testing.T, driver *fakeDriver, name string, mode types.SyncMode) types.StreamInterface {
	t.Helper()
	stream, err := driver.ProduceSchema(context.Background(), name)
	require.NoError(t, err)
	stream.SyncMode = mode
	if mode == types.INCREMENTAL {
		stream.CursorField = "updatedAt"
	}
	return stream.Wrap()
}

func TestDiscover_DefaultSyncModes(t *testing.T) {
	driver := &fakeDriver{records: map[string][]types.Record{
		"with_cursor": nil,
		"plain":       nil,
	}}
	a := NewAbstractDriver(context.Background(), driver)

	streams, err := a.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 2)

	byName := types.StreamsToMap(streams...)
	assert.Equal(t, types.INCREMENTAL, byName["with_cursor"].SyncMode, "a cursor field defaults the stream to incremental")
	assert.Equal(t, "updatedAt", byName["with_cursor"].CursorField)
	assert.Equal(t, types.FULLREFRESH, byName["plain"].SyncMode)
}

func TestSync_IncrementalAdvancesBookmark(t *testing.T) {
	driver := &fakeDriver{records: map[string][]types.Record{
		"events": {
			{"id": "e1", "updatedAt": "2025-02-01T00:00:00Z"},
			{"id": "e3", "updatedAt": "2025-02-03T00:00:00Z"},
			{"id": "e2", "updatedAt": "2025-02-02T00:00:00Z"},
		},
	}}
	a := NewAbstractDriver(context.Background(), driver)
	state := types.NewState()
	a.SetupState(state)

	e := emitter.NewStdout(&bytes.Buffer{})
	stream := configured(t, driver, "events", types.INCREMENTAL)
	require.NoError(t, a.Sync(context.Background(), e, stream))
	require.NoError(t, e.Close())

	assert.Equal(t, "2025-02-03T00:00:00Z", state.GetCursor(stream.Self(), "updatedAt"),
		"bookmark is the max cursor value, not the last record's")
	assert.Equal(t, int64(3), e.TotalRecords())
}

func TestSync_FailureLeavesBookmarkUntouched(t *testing.T) {
	driver := &fakeDriver{
		records: map[string][]types.Record{"events": nil},
		failing: map[string]error{"events": fmt.Errorf("connection reset")},
	}
	a := NewAbstractDriver(context.Background(), driver)
	state := types.NewState()
	a.SetupState(state)

	stream := configured(t, driver, "events", types.INCREMENTAL)
	state.SetCursor(stream.Self(), "updatedAt", "2025-02-01T00:00:00Z")

	e := emitter.NewStdout(&bytes.Buffer{})
	err := a.Sync(context.Background(), e, stream)
	require.NoError(t, e.Close())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")
	assert.Equal(t, "2025-02-01T00:00:00Z", state.GetCursor(stream.Self(), "updatedAt"),
		"a failed run must not move the bookmark")
}

func TestSync_SiblingIsolation(t *testing.T) {
	driver := &fakeDriver{
		records: map[string][]types.Record{
			"broken":  nil,
			"healthy": {{"id": "h1"}},
		},
		failing: map[string]error{"broken": fmt.Errorf("boom")},
	}
	a := NewAbstractDriver(context.Background(), driver)
	a.SetupState(types.NewState())

	e := emitter.NewStdout(&bytes.Buffer{})
	err := a.Sync(context.Background(), e,
		configured(t, driver, "broken", types.FULLREFRESH),
		configured(t, driver, "healthy", types.FULLREFRESH),
	)
	require.NoError(t, e.Close())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, int64(1), e.TotalRecords(), "healthy stream completes despite the sibling failure")
}
