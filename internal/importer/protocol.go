package importer

import (
	"github.com/cesargomez89/photodex/internal/domain"
)

// State is the lifecycle of one import run.
type State string

const (
	StateIdle       State = "idle"
	StateCounting   State = "counting"
	StateSequential State = "sequential"
	StateParallel   State = "parallel"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// MessageType names a message sent to a worker.
type MessageType string

const (
	MessageEnumerate    MessageType = "enumerate"
	MessageProcessBatch MessageType = "process-batch"
)

// ReplyType names a message a worker sends back.
type ReplyType string

const (
	ReplyEnumerationComplete ReplyType = "enumeration-complete"
	ReplyBatchComplete       ReplyType = "batch-complete"
	ReplyError               ReplyType = "error"
)

// Dispatch is one unit of work for a worker. Only path strings cross the
// boundary; the worker opens Root itself.
type Dispatch struct {
	Type       MessageType
	Root       string
	MaxDepth   int
	Batch      []string
	BatchIndex int
	PathPrefix string
}

// Reply answers a Dispatch.
type Reply struct {
	Type       ReplyType
	WorkerID   int
	BatchIndex int
	Files      []string
	Results    []FileResult
	Err        error
}

// FileResult is the outcome for one file. Path is the stored path, with the
// import prefix applied. Err is set when extraction failed.
type FileResult struct {
	Path     string
	Metadata domain.Metadata
	Err      error
}

// Progress counts processed files. Completed never decreases within a run.
type Progress struct {
	RunID     string `json:"run_id"`
	State     State  `json:"state"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}
