// Package engine owns the SQLite database. A single goroutine holds the only
// connection; callers talk to it with correlated request/response messages.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/logger"
)

// Engine serialises all database access through one goroutine.
type Engine struct {
	dsn    string
	logger *logger.Logger

	requests  chan *Request
	responses chan Response
	done      chan struct{}
	stopOnce  sync.Once
	stopped   atomic.Bool

	mu      sync.Mutex
	pending map[uint64]chan Response
	nextID  atomic.Uint64

	// gate keeps other callers out while a transaction is open.
	gate sync.Mutex
}

// New starts the engine goroutine. The database is not opened until Init.
func New(dsn string, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	e := &Engine{
		dsn:       dsn,
		logger:    log.WithComponent("engine"),
		requests:  make(chan *Request),
		responses: make(chan Response),
		done:      make(chan struct{}),
		pending:   make(map[uint64]chan Response),
	}
	go e.run()
	go e.dispatch()
	return e
}

// Init opens or creates the database. Calling it again is a no-op.
func (e *Engine) Init(ctx context.Context) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	_, err := e.call(ctx, &Request{Type: RequestInit})
	return err
}

// Exec runs a statement that returns no rows.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.exec(ctx, query, args...)
}

// Query materialises every row into dest, which must be a pointer to a slice.
func (e *Engine) Query(ctx context.Context, dest any, query string, args ...any) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.query(ctx, dest, query, args...)
}

// Get scans a single row into dest. It returns sql.ErrNoRows when the
// statement produced nothing.
func (e *Engine) Get(ctx context.Context, dest any, query string, args ...any) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.get(ctx, dest, query, args...)
}

// Export serialises the whole database into a byte buffer.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	e.gate.Lock()
	defer e.gate.Unlock()
	data, err := e.call(ctx, &Request{Type: RequestExport})
	if err != nil {
		return nil, err
	}
	b, _ := data.([]byte)
	return b, nil
}

// Transaction runs fn between BEGIN and COMMIT. Any error from fn or from
// COMMIT rolls the transaction back and is returned unchanged. BEGIN and
// COMMIT ignore cancellation of ctx so the connection never stays inside an
// open transaction.
func (e *Engine) Transaction(ctx context.Context, fn func(tx Executor) error) error {
	e.gate.Lock()
	defer e.gate.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	control := context.WithoutCancel(ctx)
	if _, err := e.exec(control, "BEGIN"); err != nil {
		e.rollback(ctx)
		return err
	}

	if err := fn(txExecutor{e}); err != nil {
		e.rollback(ctx)
		return err
	}

	if _, err := e.exec(control, "COMMIT"); err != nil {
		e.rollback(ctx)
		return err
	}
	return nil
}

// Close releases the database. The engine cannot be used afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.gate.Lock()
	defer e.gate.Unlock()
	_, err := e.call(ctx, &Request{Type: RequestClose})
	e.stop(domain.ErrNotInitialized)
	return err
}

// Terminate kills the engine goroutine. Outstanding requests fail with
// domain.ErrWorker.
func (e *Engine) Terminate() {
	e.stop(domain.ErrWorker)
}

func (e *Engine) rollback(ctx context.Context) {
	if _, err := e.exec(context.WithoutCancel(ctx), "ROLLBACK"); err != nil {
		e.logger.Warn("Rollback failed", "error", err)
	}
}

func (e *Engine) exec(ctx context.Context, query string, args ...any) (Result, error) {
	data, err := e.call(ctx, &Request{Type: RequestExec, SQL: query, Params: args})
	if err != nil {
		return Result{}, err
	}
	res, _ := data.(Result)
	return res, nil
}

func (e *Engine) query(ctx context.Context, dest any, query string, args ...any) error {
	_, err := e.call(ctx, &Request{Type: RequestQuery, SQL: query, Params: args, Dest: dest})
	return err
}

func (e *Engine) get(ctx context.Context, dest any, query string, args ...any) error {
	_, err := e.call(ctx, &Request{Type: RequestQuery, SQL: query, Params: args, Dest: dest, Single: true})
	return err
}

// call sends req and waits for the correlated response.
func (e *Engine) call(ctx context.Context, req *Request) (any, error) {
	if e.stopped.Load() {
		return nil, domain.ErrNotInitialized
	}

	req.ID = e.nextID.Add(1)
	req.ctx = ctx
	ch := e.register(req.ID)

	select {
	case e.requests <- req:
	case resp := <-ch:
		// rejected by stop before the engine saw it
		return nil, resp.Err
	case <-e.done:
		e.forget(req.ID)
		return nil, domain.ErrNotInitialized
	case <-ctx.Done():
		e.forget(req.ID)
		return nil, ctx.Err()
	}

	select {
	case resp := <-ch:
		if resp.Type == ResponseError {
			return nil, resp.Err
		}
		return resp.Data, nil
	case <-ctx.Done():
		e.forget(req.ID)
		return nil, ctx.Err()
	}
}

func (e *Engine) register(id uint64) chan Response {
	ch := make(chan Response, 1)
	e.mu.Lock()
	e.pending[id] = ch
	e.mu.Unlock()
	return ch
}

func (e *Engine) forget(id uint64) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// deliver hands a response to whoever is waiting for its id.
func (e *Engine) deliver(resp Response) {
	e.mu.Lock()
	ch, ok := e.pending[resp.ID]
	delete(e.pending, resp.ID)
	e.mu.Unlock()

	if !ok {
		e.logger.Warn("Dropping response for unknown request", "id", resp.ID, "type", resp.Type)
		return
	}
	ch <- resp
}

func (e *Engine) stop(cause error) {
	e.stopOnce.Do(func() {
		e.stopped.Store(true)
		close(e.done)

		e.mu.Lock()
		pending := e.pending
		e.pending = make(map[uint64]chan Response)
		e.mu.Unlock()

		for id, ch := range pending {
			ch <- Response{ID: id, Type: ResponseError, Err: cause}
		}
		if len(pending) > 0 {
			e.logger.Warn("Rejected pending requests", "count", len(pending), "cause", cause)
		}
	})
}

func (e *Engine) dispatch() {
	for {
		select {
		case resp := <-e.responses:
			e.deliver(resp)
		case <-e.done:
			return
		}
	}
}

// run is the engine goroutine. It is the only code that touches the
// database handle.
func (e *Engine) run() {
	var (
		db     *sqlx.DB
		conn   *sqlx.Conn
		closed bool
	)

	release := func() {
		if conn != nil {
			conn.Close()
			conn = nil
		}
		if db != nil {
			db.Close()
			db = nil
		}
	}
	defer release()

	for {
		var req *Request
		select {
		case req = <-e.requests:
		case <-e.done:
			return
		}

		ctx := req.ctx
		if ctx == nil {
			ctx = context.Background()
		}

		var (
			data any
			err  error
		)

		switch {
		case closed:
			err = domain.ErrNotInitialized
		case req.Type == RequestInit:
			if db == nil {
				db, conn, err = e.open(ctx)
			}
		case req.Type == RequestClose:
			if db == nil {
				err = domain.ErrNotInitialized
			} else {
				release()
				closed = true
				e.logger.Info("Database closed")
			}
		case db == nil:
			err = domain.ErrNotInitialized
		case req.Type == RequestExec:
			data, err = execOn(ctx, conn, req)
		case req.Type == RequestQuery:
			err = queryOn(ctx, conn, req)
		case req.Type == RequestExport:
			data, err = exportOn(ctx, conn)
		default:
			err = fmt.Errorf("unknown request type %q", req.Type)
		}

		resp := Response{ID: req.ID, Type: ResponseSuccess, Data: data}
		if err != nil {
			resp = Response{ID: req.ID, Type: ResponseError, Err: err}
		}

		select {
		case e.responses <- resp:
		case <-e.done:
			return
		}
	}
}

func (e *Engine) open(ctx context.Context) (*sqlx.DB, *sqlx.Conn, error) {
	db, err := sqlx.Open("sqlite", e.dsn)
	if err != nil {
		return nil, nil, &domain.StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, nil, &domain.StorageError{Op: "open", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			db.Close()
			return nil, nil, &domain.StorageError{Op: "open", Err: fmt.Errorf("failed to apply %q: %w", p, err)}
		}
	}

	e.logger.Info("Database opened", "dsn", e.dsn)
	return db, conn, nil
}

func execOn(ctx context.Context, conn *sqlx.Conn, req *Request) (Result, error) {
	res, err := conn.ExecContext(ctx, req.SQL, req.Params...)
	if err != nil {
		return Result{}, &domain.StorageError{Op: "exec", Err: err}
	}
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

func queryOn(ctx context.Context, conn *sqlx.Conn, req *Request) error {
	var err error
	if req.Single {
		err = conn.GetContext(ctx, req.Dest, req.SQL, req.Params...)
	} else {
		err = conn.SelectContext(ctx, req.Dest, req.SQL, req.Params...)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return &domain.StorageError{Op: "query", Err: err}
	}
	return nil
}

// exportOn writes a compacted copy of the database with VACUUM INTO and
// reads it back.
func exportOn(ctx context.Context, conn *sqlx.Conn) ([]byte, error) {
	dir, err := os.MkdirTemp("", "photodex-export-*")
	if err != nil {
		return nil, &domain.StorageError{Op: "export", Err: err}
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "export.db")
	if _, err := conn.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return nil, &domain.StorageError{Op: "export", Err: err}
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, &domain.StorageError{Op: "export", Err: err}
	}
	return data, nil
}

type txExecutor struct {
	e *Engine
}

func (t txExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	return t.e.exec(ctx, query, args...)
}

func (t txExecutor) Query(ctx context.Context, dest any, query string, args ...any) error {
	return t.e.query(ctx, dest, query, args...)
}

func (t txExecutor) Get(ctx context.Context, dest any, query string, args ...any) error {
	return t.e.get(ctx, dest, query, args...)
}
