// Package importer indexes a directory tree into the image repository,
// sequentially for small trees and with a worker pool for large ones.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/photodex/internal/constants"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/library"
	"github.com/cesargomez89/photodex/internal/logger"
	"github.com/cesargomez89/photodex/internal/metadata"
	"github.com/cesargomez89/photodex/internal/storage"
)

// Repository is where imported records go.
type Repository interface {
	SaveImage(ctx context.Context, rec *domain.ImageRecord) (int64, error)
	SaveImages(ctx context.Context, recs []*domain.ImageRecord) ([]int64, error)
}

// Request describes one import. Zero sizes fall back to the defaults in
// constants; a negative MaxDepth does too.
type Request struct {
	Root              string
	ManagedRoot       string
	MaxDepth          int
	BatchSize         int
	ParallelThreshold int
	MaxWorkers        int

	// OnProgress is called from the coordinating goroutine.
	OnProgress func(Progress)
	// Progress receives updates without blocking; full buffers drop them.
	Progress chan<- Progress
}

// Result is what an import produced. It is returned even when the import
// failed, holding whatever was processed until then.
type Result struct {
	RunID     string
	State     State
	Results   []FileResult
	Total     int
	ImportDir string
	Duration  time.Duration
}

// Succeeded counts results without an extraction error.
func (r *Result) Succeeded() int {
	n := 0
	for _, fr := range r.Results {
		if fr.Err == nil {
			n++
		}
	}
	return n
}

type Pipeline struct {
	repo      Repository
	extractor metadata.Extractor
	logger    *logger.Logger
	open      SourceOpener
	now       func() time.Time
}

func New(repo Repository, extractor metadata.Extractor, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Default()
	}
	return &Pipeline{
		repo:      repo,
		extractor: extractor,
		logger:    log.WithComponent("importer"),
		open:      openDir,
		now:       time.Now,
	}
}

// run carries the state of one Import call.
type run struct {
	req       Request
	result    *Result
	logger    *logger.Logger
	root      string
	prefix    string
	completed int
}

func (r *run) setState(s State) {
	r.logger.Info("Import state", "from", r.result.State, "to", s)
	r.result.State = s
}

func (r *run) report() {
	p := Progress{RunID: r.result.RunID, State: r.result.State, Completed: r.completed, Total: r.result.Total}
	if r.req.OnProgress != nil {
		r.req.OnProgress(p)
	}
	if r.req.Progress != nil {
		select {
		case r.req.Progress <- p:
		default:
		}
	}
}

// Import indexes req.Root. Extraction failures are recorded per file;
// enumeration, storage and worker failures abort the run. Batches saved
// before a failure stay saved.
func (p *Pipeline) Import(ctx context.Context, req Request) (*Result, error) {
	req = withDefaults(req)
	runID := uuid.NewString()
	start := p.now()

	r := &run{
		req:    req,
		result: &Result{RunID: runID, State: StateIdle, Results: []FileResult{}},
		logger: p.logger.WithImport(runID),
		root:   req.Root,
	}
	r.logger.Info("Import started", "root", req.Root, "max_depth", req.MaxDepth)

	err := p.execute(ctx, r)
	r.result.Duration = p.now().Sub(start)
	if err != nil {
		r.setState(StateFailed)
		r.report()
		r.logger.Error("Import failed", "error", err, "processed", r.completed)
		return r.result, err
	}

	r.setState(StateCompleted)
	r.report()
	r.logger.Info("Import completed",
		"files", len(r.result.Results),
		"succeeded", r.result.Succeeded(),
		"duration", r.result.Duration)
	return r.result, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) error {
	if r.req.ManagedRoot != "" {
		if err := p.copyIntoManaged(r); err != nil {
			return err
		}
	}

	r.setState(StateCounting)
	counted, err := library.Count(p.open(r.root), r.req.MaxDepth, r.req.ParallelThreshold)
	if err != nil {
		return err
	}

	if counted < r.req.ParallelThreshold {
		r.result.Total = counted
		r.setState(StateSequential)
		return p.sequential(ctx, r)
	}

	r.setState(StateParallel)
	return p.parallel(ctx, r)
}

// copyIntoManaged copies the source tree into a fresh import directory and
// makes that copy the tree to index.
func (p *Pipeline) copyIntoManaged(r *run) error {
	name, err := storage.CreateImportDir(r.req.ManagedRoot, p.now())
	if err != nil {
		return err
	}
	dst := filepath.Join(r.req.ManagedRoot, name)
	copied, err := storage.CopyTree(r.req.Root, dst)
	if err != nil {
		return fmt.Errorf("failed to copy %s into %s: %w", r.req.Root, dst, err)
	}

	r.root = dst
	r.prefix = name
	r.result.ImportDir = name
	r.logger.Info("Copied source into managed root", "dir", name, "files", copied)
	return nil
}

func (p *Pipeline) sequential(ctx context.Context, r *run) error {
	fsys := p.open(r.root)
	for entry, err := range library.Enumerate(fsys, r.req.MaxDepth) {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fr := FileResult{Path: storedPath(r.prefix, entry.Path)}
		md, xerr := p.extractor.Extract(ctx, fsys, entry.Path)
		fr.Metadata, fr.Err = md, xerr
		if xerr != nil {
			r.logger.WithPath(entry.Path).Warn("Extraction failed", "error", xerr)
		} else if _, err := p.repo.SaveImage(ctx, metadata.ToRecord(fr.Path, md)); err != nil {
			return err
		}

		r.result.Results = append(r.result.Results, fr)
		r.completed++
		r.report()
	}
	return nil
}

func (p *Pipeline) parallel(ctx context.Context, r *run) error {
	n := workerCount(r.req.MaxWorkers)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	replies := make(chan Reply, n)

	workers := make([]*worker, n)
	for i := range workers {
		w := &worker{
			id:        i,
			extractor: p.extractor,
			open:      p.open,
			inbox:     make(chan Dispatch, 1),
			outbox:    replies,
			logger:    &logger.Logger{Logger: r.logger.WithComponent("import-worker").With("worker_id", i)},
		}
		workers[i] = w
		g.Go(func() error { return w.run(gctx) })
	}
	r.logger.Info("Started import workers", "workers", n)

	err := p.coordinate(gctx, r, workers, replies)

	// Tear the pool down on success and on failure alike.
	cancel()
	for _, w := range workers {
		close(w.inbox)
	}
	werr := g.Wait()

	// A crashed worker cancels gctx; report the crash, not the cancellation.
	if werr != nil && (err == nil || errors.Is(err, context.Canceled)) {
		err = werr
	}
	return err
}

func (p *Pipeline) coordinate(ctx context.Context, r *run, workers []*worker, replies <-chan Reply) error {
	workers[0].inbox <- Dispatch{Type: MessageEnumerate, Root: r.root, MaxDepth: r.req.MaxDepth}
	reply, err := await(ctx, replies)
	if err != nil {
		return err
	}
	if reply.Type != ReplyEnumerationComplete {
		return unexpected(reply)
	}

	r.result.Total = len(reply.Files)
	queue := newBatchQueue(reply.Files, r.req.BatchSize)
	r.logger.Info("Enumerated files", "files", len(reply.Files), "batches", queue.Len())
	r.report()

	dispatch := func(w *worker) bool {
		index, batch, ok := queue.Claim()
		if !ok {
			return false
		}
		w.inbox <- Dispatch{
			Type:       MessageProcessBatch,
			Root:       r.root,
			MaxDepth:   r.req.MaxDepth,
			Batch:      batch,
			BatchIndex: index,
			PathPrefix: r.prefix,
		}
		return true
	}

	inFlight := 0
	for _, w := range workers {
		if dispatch(w) {
			inFlight++
		}
	}

	for inFlight > 0 {
		reply, err := await(ctx, replies)
		if err != nil {
			return err
		}
		inFlight--
		if reply.Type != ReplyBatchComplete {
			return unexpected(reply)
		}

		if err := p.persist(ctx, r, reply); err != nil {
			return err
		}
		if dispatch(workers[reply.WorkerID]) {
			inFlight++
		}
	}
	return nil
}

// persist saves the successful records of one batch and reports progress.
func (p *Pipeline) persist(ctx context.Context, r *run, reply Reply) error {
	recs := make([]*domain.ImageRecord, 0, len(reply.Results))
	for _, fr := range reply.Results {
		if fr.Err != nil {
			r.logger.WithPath(fr.Path).Warn("Extraction failed", "error", fr.Err)
			continue
		}
		recs = append(recs, metadata.ToRecord(fr.Path, fr.Metadata))
	}
	if _, err := p.repo.SaveImages(ctx, recs); err != nil {
		return fmt.Errorf("failed to save batch %d: %w", reply.BatchIndex, err)
	}

	r.result.Results = append(r.result.Results, reply.Results...)
	r.completed += len(reply.Results)
	r.logger.Debug("Batch saved", "batch", reply.BatchIndex, "worker_id", reply.WorkerID, "saved", len(recs))
	r.report()
	return nil
}

func await(ctx context.Context, replies <-chan Reply) (Reply, error) {
	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case reply := <-replies:
		if reply.Type == ReplyError {
			return reply, reply.Err
		}
		return reply, nil
	}
}

func unexpected(reply Reply) error {
	return &domain.WorkerError{WorkerID: reply.WorkerID, Err: fmt.Errorf("unexpected reply %q", reply.Type)}
}

// workerCount leaves one CPU to the coordinator, within [1, maxWorkers].
func workerCount(maxWorkers int) int {
	return max(1, min(runtime.NumCPU()-1, maxWorkers))
}

func withDefaults(req Request) Request {
	if req.MaxDepth < 0 {
		req.MaxDepth = constants.DefaultMaxDepth
	}
	if req.BatchSize <= 0 {
		req.BatchSize = constants.DefaultBatchSize
	}
	if req.ParallelThreshold <= 0 {
		req.ParallelThreshold = constants.DefaultParallelThreshold
	}
	if req.MaxWorkers <= 0 {
		req.MaxWorkers = constants.DefaultMaxWorkers
	}
	return req
}
