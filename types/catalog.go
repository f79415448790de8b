package types

// Catalog is the set of configured streams handed to sync. SelectedStreams
// maps namespace -> stream selections; a nil map selects everything.
type Catalog struct {
	SelectedStreams map[string][]StreamMetadata `json:"selected_streams,omitempty"`
	Streams         []*ConfiguredStream         `json:"streams,omitempty"`
}

type StreamMetadata struct {
	StreamName string `json:"stream_name"`
}

// GetWrappedCatalog wraps discovery output into a catalog with every stream
// configured at its default sync mode.
func GetWrappedCatalog(streams []*Stream) *Catalog {
	catalog := &Catalog{
		Streams: []*ConfiguredStream{},
	}
	for _, stream := range streams {
		catalog.Streams = append(catalog.Streams, stream.Wrap())
	}
	return catalog
}
