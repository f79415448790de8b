package types

import (
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
)

type StateType string

// StreamType states keep an independent bookmark per stream; the only type
// this connector produces.
const StreamType StateType = "STREAM"

// State holds the resumable position of every synced stream. Owned by the
// protocol layer; streams read and write it only through the cursor API.
type State struct {
	*sync.RWMutex `json:"-"`
	Type          StateType      `json:"type"`
	Streams       []*StreamState `json:"streams"`
}

func NewState() *State {
	return &State{RWMutex: &sync.RWMutex{}, Type: StreamType, Streams: []*StreamState{}}
}

func (s *State) SetType(typ StateType) {
	s.Type = typ
}

func (s *State) IsZero() bool {
	s.RLock()
	defer s.RUnlock()
	for _, stream := range s.Streams {
		if stream.HoldsValue.Load() {
			return false
		}
	}
	return true
}

func (s *State) ResetStreams() {
	s.Lock()
	defer s.Unlock()
	s.Streams = []*StreamState{}
}

// initStreamState returns the state entry for the stream, creating one when
// absent. Callers must hold the write lock.
func (s *State) initStreamState(stream *ConfiguredStream) *StreamState {
	for _, candidate := range s.Streams {
		if candidate.Stream == stream.Name() && candidate.Namespace == stream.Namespace() {
			return candidate
		}
	}
	streamState := &StreamState{
		Stream:    stream.Name(),
		Namespace: stream.Namespace(),
		State:     sync.Map{},
	}
	s.Streams = append(s.Streams, streamState)
	return streamState
}

func (s *State) SetCursor(stream *ConfiguredStream, key string, value any) {
	if key == "" {
		return
	}
	s.Lock()
	defer s.Unlock()
	streamState := s.initStreamState(stream)
	streamState.State.Store(key, value)
	streamState.HoldsValue.Store(true)
}

func (s *State) GetCursor(stream *ConfiguredStream, key string) any {
	if key == "" {
		return nil
	}
	s.RLock()
	defer s.RUnlock()
	for _, streamState := range s.Streams {
		if streamState.Stream == stream.Name() && streamState.Namespace == stream.Namespace() {
			value, _ := streamState.State.Load(key)
			return value
		}
	}
	return nil
}

// ResetCursor drops the stream's bookmark while preserving unrelated keys.
func (s *State) ResetCursor(stream *ConfiguredStream) {
	s.Lock()
	defer s.Unlock()
	for _, streamState := range s.Streams {
		if streamState.Stream == stream.Name() && streamState.Namespace == stream.Namespace() {
			streamState.State.Delete(stream.Cursor())
			holds := false
			streamState.State.Range(func(_, _ any) bool {
				holds = true
				return false
			})
			streamState.HoldsValue.Store(holds)
		}
	}
}

// DeleteStateKey removes one key from the stream's bookmark, keeping
// HoldsValue consistent.
func (s *State) DeleteStateKey(stream *ConfiguredStream, key string) {
	if key == "" {
		return
	}
	s.Lock()
	defer s.Unlock()
	for _, streamState := range s.Streams {
		if streamState.Stream == stream.Name() && streamState.Namespace == stream.Namespace() {
			streamState.State.Delete(key)
			holds := false
			streamState.State.Range(func(_, _ any) bool {
				holds = true
				return false
			})
			streamState.HoldsValue.Store(holds)
		}
	}
}

// MarshalJSON serializes only streams that hold a value, so a fresh state
// round-trips as zero.
func (s *State) MarshalJSON() ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	populated := []*StreamState{}
	for _, streamState := range s.Streams {
		if streamState.HoldsValue.Load() {
			populated = append(populated, streamState)
		}
	}
	return json.Marshal(&struct {
		Type    StateType      `json:"type"`
		Streams []*StreamState `json:"streams"`
	}{Type: s.Type, Streams: populated})
}

// StreamState is the bookmark of one stream: cursor values and page
// checkpoints keyed by field name.
type StreamState struct {
	HoldsValue atomic.Bool `json:"-"`

	Stream    string   `json:"stream"`
	Namespace string   `json:"namespace,omitempty"`
	State     sync.Map `json:"state"`
}

func (s *StreamState) MarshalJSON() ([]byte, error) {
	stateMap := make(map[string]any)
	s.State.Range(func(key, value any) bool {
		stateMap[key.(string)] = value
		return true
	})
	return json.Marshal(&struct {
		Stream    string         `json:"stream"`
		Namespace string         `json:"namespace,omitempty"`
		State     map[string]any `json:"state"`
	}{Stream: s.Stream, Namespace: s.Namespace, State: stateMap})
}

func (s *StreamState) UnmarshalJSON(data []byte) error {
	aux := &struct {
		Stream    string         `json:"stream"`
		Namespace string         `json:"namespace,omitempty"`
		State     map[string]any `json:"state"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Stream = aux.Stream
	s.Namespace = aux.Namespace
	for key, value := range aux.State {
		s.State.Store(key, value)
	}
	s.HoldsValue.Store(len(aux.State) > 0)
	return nil
}
