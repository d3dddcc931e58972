package engine

import "context"

// RequestType names an operation understood by the engine goroutine.
type RequestType string

const (
	RequestInit   RequestType = "init"
	RequestExec   RequestType = "exec"
	RequestQuery  RequestType = "query"
	RequestExport RequestType = "export"
	RequestClose  RequestType = "close"
)

// ResponseType tells success and failure apart.
type ResponseType string

const (
	ResponseSuccess ResponseType = "success"
	ResponseError   ResponseType = "error"
)

// Request is one message to the engine goroutine. ID is assigned by the
// engine from an incrementing counter.
type Request struct {
	ID     uint64
	Type   RequestType
	SQL    string
	Params []any

	// Dest receives query rows. Single selects a one-row scan.
	Dest   any
	Single bool

	ctx context.Context
}

// Response answers the request with the same ID.
type Response struct {
	ID   uint64
	Type ResponseType
	Data any
	Err  error
}

// Result is the data of a successful exec.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Executor runs statements. The Engine is one, and so is the handle passed
// to a Transaction callback.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	Query(ctx context.Context, dest any, query string, args ...any) error
	Get(ctx context.Context, dest any, query string, args ...any) error
}
