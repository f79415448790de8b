package emitter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/types"
	"github.com/reservoir-data/tap-tally/utils"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

// Emitter hands extracted data to the downstream consumer as protocol rows.
// Row ordering is preserved: a STATE row emitted after a page of records is
// guaranteed to follow them on the wire.
type Emitter interface {
	Schema(stream types.StreamInterface) error
	Record(stream types.StreamInterface, record types.Record) error
	State(state *types.State) error
	Catalog(catalog *types.Catalog) error
	Spec(spec map[string]any) error
	ConnectionStatus(status types.ConnectionStatus, message string) error
	TotalRecords() int64
	Close() error
}

// Stdout writes single-line JSON rows to stdout through a buffered drain
// goroutine, so slow consumers do not stall the extraction loop.
type Stdout struct {
	mu         sync.Mutex
	rows       chan types.Message
	group      *errgroup.Group
	writer     *bufio.Writer
	total      atomic.Int64
	schemaSent map[string]bool
	closed     bool
	writeErr   error
}

// NewStdout builds an emitter over out; pass nil for os.Stdout.
func NewStdout(out io.Writer) *Stdout {
	if out == nil {
		out = os.Stdout
	}
	emitter := &Stdout{
		rows:       make(chan types.Message, 256),
		writer:     bufio.NewWriter(out),
		schemaSent: make(map[string]bool),
		group:      &errgroup.Group{},
	}
	emitter.group.Go(emitter.drain)
	return emitter
}

func (s *Stdout) drain() error {
	for row := range s.rows {
		data, err := json.Marshal(row)
		if err != nil {
			s.setWriteErr(fmt.Errorf("failed to marshal %s row: %s", row.Type, err))
			continue
		}
		if _, err := s.writer.Write(append(data, '\n')); err != nil {
			s.setWriteErr(fmt.Errorf("failed to write %s row: %s", row.Type, err))
		}
	}
	return s.writer.Flush()
}

func (s *Stdout) setWriteErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr == nil {
		s.writeErr = err
	}
	logger.Error(err)
}

func (s *Stdout) push(row types.Message) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("emitter closed; dropping %s row", row.Type)
	}
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.rows <- row
	return nil
}

func (s *Stdout) Schema(stream types.StreamInterface) error {
	s.mu.Lock()
	sent := s.schemaSent[stream.ID()]
	s.schemaSent[stream.ID()] = true
	s.mu.Unlock()
	if sent {
		return nil
	}

	row := types.Message{
		Type:          types.SchemaMessage,
		Stream:        stream.Name(),
		Schema:        stream.Schema(),
		KeyProperties: stream.GetStream().SourceDefinedPrimaryKey.Array(),
	}
	if cursor := stream.Cursor(); cursor != "" && stream.GetSyncMode() == types.INCREMENTAL {
		row.BookmarkProperties = []string{cursor}
	}
	return s.push(row)
}

func (s *Stdout) Record(stream types.StreamInterface, record types.Record) error {
	now := time.Now().UTC()
	if err := s.push(types.Message{
		Type:          types.RecordMessage,
		Stream:        stream.Name(),
		Record:        record,
		TimeExtracted: &now,
	}); err != nil {
		return err
	}
	s.total.Add(1)
	return nil
}

// State emits a STATE row and persists the checkpoint file so an aborted run
// can resume from the last emitted bookmark.
func (s *Stdout) State(state *types.State) error {
	if err := s.push(types.Message{Type: types.StateMessage, State: state}); err != nil {
		return err
	}
	if statePath := viper.GetString(constants.StatePath); statePath != "" {
		if err := utils.WriteJSONFile(statePath, state); err != nil {
			return fmt.Errorf("failed to persist state file: %s", err)
		}
	}
	return nil
}

func (s *Stdout) Catalog(catalog *types.Catalog) error {
	return s.push(types.Message{Type: types.CatalogMessage, Catalog: catalog})
}

func (s *Stdout) Spec(spec map[string]any) error {
	return s.push(types.Message{Type: types.SpecMessage, Spec: spec})
}

func (s *Stdout) ConnectionStatus(status types.ConnectionStatus, message string) error {
	return s.push(types.Message{
		Type:             types.ConnectionStatusMessage,
		ConnectionStatus: &types.StatusRow{Status: status, Message: message},
	})
}

func (s *Stdout) TotalRecords() int64 {
	return s.total.Load()
}

func (s *Stdout) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.writeErr
	}
	s.closed = true
	s.mu.Unlock()

	close(s.rows)
	if err := s.group.Wait(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr
}
