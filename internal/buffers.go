package internal

// BufferProvider exposes the host environment's currently open, modified
// in-memory buffers. Files present in the returned map are scanned from the
// live content instead of disk, and are excluded from location-based result
// reuse (live content is assumed unique per file).
type BufferProvider interface {
	// OpenBuffers maps file path to live content. The engine reads the map
	// once per search, at the start.
	OpenBuffers() map[string]string
}

// StaticBuffers is a fixed path-to-content map.
type StaticBuffers map[string]string

func (b StaticBuffers) OpenBuffers() map[string]string { return b }
