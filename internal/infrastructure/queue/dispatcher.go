// Package queue fans cell edits out to a fixed set of workers.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coderz/catalog-client/internal/core/domain"
	"github.com/coderz/catalog-client/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Edit is one user edit waiting to be applied.
type Edit struct {
	Cell  *domain.Cell
	Input string
}

// Result is the settled outcome of an Edit.
type Result struct {
	Edit    Edit
	Outcome domain.EditOutcome
	Err     error
}

// Dispatcher routes edits to workers using consistent hashing on the record
// id. Edits to one record run strictly in order, so two fields of the same
// record never race through fetch-merge-write; different records proceed
// concurrently.
type Dispatcher struct {
	workers []chan Edit
	results chan Result
	editor  ports.CellEditor
	log     zerolog.Logger
	wg      sync.WaitGroup
	ctx     context.Context
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, editor ports.CellEditor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan Edit, numWorkers),
		results: make(chan Result, channelBuffer),
		editor:  editor,
		log:     log,
		ctx:     context.Background(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan Edit, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx = ctx
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an edit to the worker responsible for its record. Once the
// Start context is done it returns the context error instead of blocking on
// a queue nobody drains. It must not be called after Stop.
func (d *Dispatcher) Enqueue(edit Edit) error {
	if err := d.ctx.Err(); err != nil {
		return err
	}
	select {
	case d.workers[d.shardIndex(strconv.Itoa(edit.Cell.RecordID))] <- edit:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// Results delivers one Result per processed Edit. It is closed by Stop.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Stop lets workers drain their queues, waits for them and closes Results.
func (d *Dispatcher) Stop() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
	close(d.results)
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan Edit) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case edit, ok := <-ch:
			if !ok {
				return
			}
			outcome, err := d.editor.Blur(ctx, edit.Cell, edit.Input)
			if err != nil {
				d.log.Error().Err(err).
					Str("cell", edit.Cell.Key()).
					Int("worker_id", id).
					Msg("cell edit failed")
			}
			select {
			case d.results <- Result{Edit: edit, Outcome: outcome, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}
