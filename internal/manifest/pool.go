package manifest

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"servicedesk/internal/complaint"
	"servicedesk/internal/errors"

	"github.com/natefinch/atomic"
)

// Result is the outcome of one manifest job.
type Result struct {
	ID    string
	Path  string
	Error error
}

// worker is a single goroutine of the pool.
//
// Lifecycle:
//  1. Pull a record from the jobs channel
//  2. Render HTML, print it, write the PDF
//  3. Send the result
//  4. Exit when the jobs channel closes
type worker struct {
	id      int
	jobs    <-chan complaint.Record
	results chan<- Result
	ctx     context.Context
	printer Printer
	dir     string
	wg      *sync.WaitGroup
}

// Pool prints manifests concurrently.
//
// Chrome renders one tab per worker, so the worker count bounds how many
// pages are open at once.
type Pool struct {
	jobs    chan complaint.Record
	results chan Result
	wg      sync.WaitGroup
}

// NewPool starts workerCount workers writing PDFs into dir.
//
// Parameters:
//   - ctx: Cancels in-flight prints when done
//   - printer: HTML to PDF converter
//   - dir: Output directory (must exist)
//   - workerCount: Number of concurrent workers (at least 1)
func NewPool(ctx context.Context, printer Printer, dir string, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	log.Printf("  → Creating manifest pool with %d workers...\n", workerCount)

	pool := &Pool{
		jobs:    make(chan complaint.Record, 100),
		results: make(chan Result, 100),
	}

	for i := range workerCount {
		w := &worker{
			id:      i + 1,
			jobs:    pool.jobs,
			results: pool.results,
			ctx:     ctx,
			printer: printer,
			dir:     dir,
			wg:      &pool.wg,
		}
		pool.wg.Add(1)
		go w.start()
	}

	return pool
}

// Submit queues a record. It blocks when the queue is full.
func (p *Pool) Submit(r complaint.Record) {
	p.jobs <- r
}

// Close stops accepting jobs, waits for the workers and closes Results.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
}

// Results returns the results channel. Drain it while submitting, or
// submit fewer jobs than the buffer holds.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// PrintAll prints every record and returns the results in completion order.
func PrintAll(ctx context.Context, printer Printer, dir string, workerCount int, records []complaint.Record) []Result {
	pool := NewPool(ctx, printer, dir, workerCount)

	go func() {
		for _, r := range records {
			pool.Submit(r)
		}
		pool.Close()
	}()

	out := make([]Result, 0, len(records))
	for res := range pool.Results() {
		out = append(out, res)
	}
	return out
}

func (w *worker) start() {
	defer w.wg.Done()

	for r := range w.jobs {
		res := w.print(r)
		if res.Error != nil {
			log.Printf("  [Worker #%d] ✗ Manifest %s failed: %v\n", w.id, r.ID, res.Error)
		} else {
			log.Printf("  [Worker #%d] ✓ Manifest %s → %s\n", w.id, r.ID, res.Path)
		}
		w.results <- res
	}
}

func (w *worker) print(r complaint.Record) Result {
	res := Result{ID: r.ID}

	if err := w.ctx.Err(); err != nil {
		res.Error = errors.NewRenderError("manifest "+r.ID, err)
		return res
	}

	html, err := HTML(r)
	if err != nil {
		res.Error = err
		return res
	}

	pdf, err := w.printer.PDF(w.ctx, html)
	if err != nil {
		res.Error = errors.NewRenderError("manifest "+r.ID, err)
		return res
	}

	path := filepath.Join(w.dir, FileName(r))
	if err := atomic.WriteFile(path, bytes.NewReader(pdf)); err != nil {
		res.Error = errors.NewRenderError("manifest "+r.ID, fmt.Errorf("write %s: %w", path, err))
		return res
	}
	res.Path = path
	return res
}
