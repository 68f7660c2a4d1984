package page

import (
	"sync"

	"github.com/lcalzada-xor/pagetap/pkg/models"
)

// Evidence holds the three page-wide evidence containers: the network
// event log, the DOM marker log, and the unified sink list. Each is
// append-only; insertion order is discovery order and is never
// reordered or compacted. Nothing in this layer ever clears them;
// only a fresh page (a new Evidence) resets the containers.
//
// The mutex is the Go translation of "ordered append must not corrupt":
// the original runs on a single cooperatively scheduled loop; here,
// independently completing requests may append from separate
// goroutines.
type Evidence struct {
	mu      sync.Mutex
	network []models.NetworkEvent
	markers []models.DOMMarker
	sinks   []models.Sink
}

// NewEvidence creates empty containers for one page load.
func NewEvidence() *Evidence {
	return &Evidence{}
}

// AppendNetworkEvent records one completed request.
func (e *Evidence) AppendNetworkEvent(ev models.NetworkEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.network = append(e.network, ev)
}

// AppendMarker records one DOM heuristic hit. No dedup: repeated scan
// passes over an unchanged tree append duplicates by design.
func (e *Evidence) AppendMarker(m models.DOMMarker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markers = append(e.markers, m)
}

// AppendSink records one normalized sink. Submissions missing the
// mandatory type or location are dropped silently; the return value
// exists for tests, not for control flow.
func (e *Evidence) AppendSink(s models.Sink) bool {
	if !s.Valid() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
	return true
}

// NetworkEvents returns a copy of the network event log.
func (e *Evidence) NetworkEvents() []models.NetworkEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.NetworkEvent, len(e.network))
	copy(out, e.network)
	return out
}

// Markers returns a copy of the DOM marker log.
func (e *Evidence) Markers() []models.DOMMarker {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.DOMMarker, len(e.markers))
	copy(out, e.markers)
	return out
}

// Sinks returns a copy of the unified sink list.
func (e *Evidence) Sinks() []models.Sink {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Sink, len(e.sinks))
	copy(out, e.sinks)
	return out
}
