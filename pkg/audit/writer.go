package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
)

// Sink persists a batch of sealed entries. A real deployment backs this
// with a database or log-structured store; this module treats persistence
// as an external collaborator and only defines the contract.
type Sink interface {
	Persist(ctx context.Context, entries []*Entry) error
}

// WriterConfig configures the buffered Writer (spec.md §4.7).
type WriterConfig struct {
	Capacity      int
	FlushInterval time.Duration
}

// DefaultWriterConfig matches spec.md §4.7's stated defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{Capacity: 1000, FlushInterval: 30 * time.Second}
}

// Writer buffers sealed entries in memory and flushes them to a Sink when
// the buffer reaches capacity, a critical/security_event entry arrives, or
// the periodic timer fires (spec.md §4.7).
type Writer struct {
	cfg    WriterConfig
	signer Signer
	sink   Sink
	logger *slog.Logger

	mu       sync.Mutex
	buf      []*Entry
	sequence uint64

	stop chan struct{}
	done chan struct{}
}

// NewWriter builds a Writer. Call Start to begin the periodic flush timer.
func NewWriter(cfg WriterConfig, signer Signer, sink Sink) *Writer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultWriterConfig().Capacity
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &Writer{
		cfg:    cfg,
		signer: signer,
		sink:   sink,
		logger: slog.Default().With("component", "audit-writer"),
	}
}

// nextSequence assigns a per-node monotonically increasing sequence
// number (spec.md §4.7).
func (w *Writer) nextSequence() uint64 {
	return atomic.AddUint64(&w.sequence, 1)
}

// Append seals and buffers e, flushing immediately if e is critical severity
// or in the security_event category, or if the buffer has reached capacity.
func (w *Writer) Append(ctx context.Context, e *Entry) error {
	e.Sequence = w.nextSequence()
	if err := Seal(e, w.signer); err != nil {
		return err
	}

	w.mu.Lock()
	w.buf = append(w.buf, e)
	mustFlush := len(w.buf) >= w.cfg.Capacity ||
		e.Severity == SeverityCritical ||
		e.Category == CategorySecurityEvent
	w.mu.Unlock()

	if mustFlush {
		return w.Flush(ctx)
	}
	return nil
}

// Flush persists every buffered entry. On failure, entries are restored to
// the front of the buffer rather than dropped (spec.md §4.7).
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	pending := w.buf
	w.buf = nil
	w.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if w.sink == nil {
		// No sink configured: keep entries buffered rather than
		// silently discarding them.
		w.mu.Lock()
		w.buf = append(pending, w.buf...)
		w.mu.Unlock()
		return nil
	}

	if err := w.sink.Persist(ctx, pending); err != nil {
		w.logger.Error("audit flush failed, restoring entries to buffer", "count", len(pending), "error", err)
		w.mu.Lock()
		w.buf = append(pending, w.buf...)
		w.mu.Unlock()
		return trusterrors.Wrap(trusterrors.KindPersistFailure, "audit flush failed", err)
	}
	return nil
}

// Start launches the periodic flush timer. Stop must be called to release
// it.
func (w *Writer) Start(ctx context.Context) {
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(ctx)
}

func (w *Writer) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				w.logger.Warn("periodic audit flush failed", "error", err)
			}
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the periodic flush timer and blocks until it has exited.
func (w *Writer) Stop() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	<-w.done
}

// Buffered returns the number of entries currently buffered, unflushed.
func (w *Writer) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}
