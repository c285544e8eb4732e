// Package clustercode provides a Go library for distributed video
// transcoding: chunk a source video, dispatch the chunks across remote
// worker hosts over SSH, and reassemble the encoded chunks with the
// original audio re-muxed in.
package clustercode

import "time"

// Event types, for integrations that consume JSON-serialized events rather
// than a Reporter implementation directly.
const (
	EventTypeRunStarted    = "run_started"
	EventTypeSplitComplete = "split_complete"
	EventTypeHostStarted   = "host_started"
	EventTypeChunkProgress = "chunk_progress"
	EventTypeRunComplete   = "run_complete"
	EventTypeWarning       = "warning"
	EventTypeError         = "error"
)

// Event is the interface for all clustercode events.
type Event interface {
	Type() string
	Timestamp() int64
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string `json:"type"`
	Time      int64  `json:"timestamp"`
}

func (e BaseEvent) Type() string     { return e.EventType }
func (e BaseEvent) Timestamp() int64 { return e.Time }

// RunStartedEvent fires once, before the first chunk is dispatched.
type RunStartedEvent struct {
	BaseEvent
	InputFile       string   `json:"input_file"`
	OutputFile      string   `json:"output_file"`
	Hosts           []string `json:"hosts"`
	ChunkLengthSecs uint     `json:"chunk_length_secs"`
}

// SplitCompleteEvent reports the chunk count produced by the local split.
type SplitCompleteEvent struct {
	BaseEvent
	ChunkCount int `json:"chunk_count"`
}

// HostStartedEvent fires once per host as its pair is spawned.
type HostStartedEvent struct {
	BaseEvent
	Host string `json:"host"`
}

// ChunkProgressEvent fires once per chunk pulled back from any host.
type ChunkProgressEvent struct {
	BaseEvent
	Host           string `json:"host"`
	ChunkIdx       int    `json:"chunk_idx"`
	HostCompleted  int    `json:"host_completed"`
	TotalCompleted int    `json:"total_completed"`
	TotalChunks    int    `json:"total_chunks"`
}

// RunCompleteEvent fires once, after the final file has been validated.
type RunCompleteEvent struct {
	BaseEvent
	OutputFile           string  `json:"output_file"`
	OriginalSize         uint64  `json:"original_size"`
	EncodedSize          uint64  `json:"encoded_size"`
	SizeReductionPercent float64 `json:"size_reduction_percent"`
	TotalTimeSeconds     float64 `json:"total_time_seconds"`
}

// WarningEvent represents a non-fatal warning, e.g. a failed cleanup or a
// failed post-run validation.
type WarningEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// ErrorEvent represents the fatal error that aborted a run.
type ErrorEvent struct {
	BaseEvent
	Title      string `json:"title"`
	Message    string `json:"message"`
	Context    string `json:"context"`
	Suggestion string `json:"suggestion"`
}

// EventHandler is called with events during a run.
type EventHandler func(Event) error

// NewTimestamp returns the current Unix timestamp.
func NewTimestamp() int64 {
	return time.Now().Unix()
}
