package importer

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"runtime/debug"

	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/library"
	"github.com/cesargomez89/photodex/internal/logger"
	"github.com/cesargomez89/photodex/internal/metadata"
)

// SourceOpener turns a root path into a file system. Every worker calls it
// for itself.
type SourceOpener func(root string) fs.FS

func openDir(root string) fs.FS {
	return library.NewDirFS(root)
}

type worker struct {
	id        int
	extractor metadata.Extractor
	open      SourceOpener
	inbox     chan Dispatch
	outbox    chan<- Reply
	logger    *logger.Logger

	root  string
	fsys  fs.FS
	known map[string]bool
}

// run serves dispatches until the inbox closes. A failed or panicking
// dispatch is reported on the outbox and ends the worker.
func (w *worker) run(ctx context.Context) error {
	for {
		var msg Dispatch
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-w.inbox:
			if !ok {
				return nil
			}
			msg = m
		}

		reply, err := w.safeHandle(ctx, msg)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		if err != nil {
			werr := &domain.WorkerError{WorkerID: w.id, Err: err}
			reply = Reply{Type: ReplyError, WorkerID: w.id, BatchIndex: msg.BatchIndex, Err: werr}
			w.send(ctx, reply)
			return werr
		}
		if !w.send(ctx, reply) {
			return nil
		}
	}
}

func (w *worker) send(ctx context.Context, reply Reply) bool {
	select {
	case w.outbox <- reply:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *worker) safeHandle(ctx context.Context, msg Dispatch) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Worker panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.handle(ctx, msg)
}

func (w *worker) handle(ctx context.Context, msg Dispatch) (Reply, error) {
	switch msg.Type {
	case MessageEnumerate:
		files, err := library.Collect(w.source(msg.Root), msg.MaxDepth)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Type: ReplyEnumerationComplete, WorkerID: w.id, Files: files}, nil
	case MessageProcessBatch:
		results, err := w.process(ctx, msg)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Type: ReplyBatchComplete, WorkerID: w.id, BatchIndex: msg.BatchIndex, Results: results}, nil
	default:
		return Reply{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (w *worker) source(root string) fs.FS {
	if w.fsys == nil || w.root != root {
		w.root, w.fsys, w.known = root, w.open(root), nil
	}
	return w.fsys
}

// process re-resolves every path of the batch against the worker's own
// view of the tree before extracting it.
func (w *worker) process(ctx context.Context, msg Dispatch) ([]FileResult, error) {
	fsys := w.source(msg.Root)
	if w.known == nil {
		paths, err := library.Collect(fsys, msg.MaxDepth)
		if err != nil {
			return nil, err
		}
		w.known = make(map[string]bool, len(paths))
		for _, p := range paths {
			w.known[p] = true
		}
	}

	results := make([]FileResult, 0, len(msg.Batch))
	for _, rel := range msg.Batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stored := storedPath(msg.PathPrefix, rel)
		if !w.known[rel] {
			results = append(results, FileResult{
				Path: stored,
				Err:  &domain.ExtractionError{Path: rel, Err: fs.ErrNotExist},
			})
			continue
		}

		md, err := w.extractor.Extract(ctx, fsys, rel)
		if err != nil {
			w.logger.WithPath(rel).Debug("Extraction failed", "error", err)
		}
		results = append(results, FileResult{Path: stored, Metadata: md, Err: err})
	}
	return results, nil
}

func storedPath(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}
