package models

// MarkerKind tells which part of an element a DOM marker was raised for.
type MarkerKind string

const (
	KindAttribute   MarkerKind = "attribute"
	KindInnerMarkup MarkerKind = "innerMarkup"
)

// SinkType tells which probe a sink came from.
type SinkType string

const (
	SinkNetwork SinkType = "network"
	SinkDOM     SinkType = "dom"
)

// NetworkEvent is one completed request observed through the modern
// entry point. Immutable once appended to the evidence log.
type NetworkEvent struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status"`
	DurationMs   int64  `json:"duration_ms"`
	ResponseBody string `json:"response_body,omitempty"`
}

// CaptureRecord is the legacy-path variant, handed to the host-supplied
// capture callback instead of the generic event log.
type CaptureRecord struct {
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
}

// DOMMarker is a raw heuristic hit on a document element. Markers are
// never deduplicated: a second scan pass over an unchanged tree appends
// duplicates of every still-matching node.
type DOMMarker struct {
	Tag   string     `json:"tag"`
	Kind  MarkerKind `json:"kind"`
	Name  string     `json:"name,omitempty"` // attribute name, for kind=attribute
	Value string     `json:"value"`
	Path  string     `json:"path"`
	// Sinks lists JS sink calls reached by an inline handler value,
	// when the value parses as JavaScript. Best effort.
	Sinks []string `json:"sinks,omitempty"`
}

// Sink is the aggregator's normalized evidence unit. Type and Location
// are mandatory; submissions missing either are dropped silently.
type Sink struct {
	Type     SinkType `json:"type"`
	Location string   `json:"location"`
	Value    string   `json:"value"`
	Extra    string   `json:"extra,omitempty"`
}

// Valid reports whether the sink carries the two mandatory fields.
func (s Sink) Valid() bool {
	return s.Type != "" && s.Location != ""
}
