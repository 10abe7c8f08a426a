package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/haiphamcoder/tracehub/internal/adapter/metrics"
	"github.com/haiphamcoder/tracehub/internal/domain"
	"github.com/haiphamcoder/tracehub/internal/pkg/routing"
)

// ProcessRecordsUseCase consumes broker records and indexes them into the
// search store exactly once. The document id is derived from the event plus
// the record's partition offset, so a redelivered record recomputes the
// same id and the create-only write turns the duplicate into a no-op.
//
// Records are dispatched to one worker goroutine per partition. Worker
// queues are bounded; a full queue blocks the fetch loop, which slows
// consumption instead of dropping records.
type ProcessRecordsUseCase struct {
	consumer    domain.RecordConsumer
	store       domain.SearchStore
	dlq         domain.DeadLetterSink
	logger      *slog.Logger
	metrics     *metrics.ProcessorMetrics
	processorID string

	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	queueSize   int

	mu      sync.Mutex
	workers map[int]chan domain.Record
	wg      sync.WaitGroup
}

// ProcessorOptions bound the retry and dispatch behavior.
type ProcessorOptions struct {
	ProcessorID string
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	QueueSize   int
}

// NewProcessRecordsUseCase creates a new processor use case.
func NewProcessRecordsUseCase(
	consumer domain.RecordConsumer,
	store domain.SearchStore,
	dlq domain.DeadLetterSink,
	logger *slog.Logger,
	m *metrics.ProcessorMetrics,
	opts ProcessorOptions,
) *ProcessRecordsUseCase {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 200 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	return &ProcessRecordsUseCase{
		consumer:    consumer,
		store:       store,
		dlq:         dlq,
		logger:      logger,
		metrics:     m,
		processorID: opts.ProcessorID,
		maxRetries:  opts.MaxRetries,
		baseBackoff: opts.BaseBackoff,
		maxBackoff:  opts.MaxBackoff,
		queueSize:   opts.QueueSize,
		workers:     make(map[int]chan domain.Record),
	}
}

// Run fetches records and dispatches them to partition workers until ctx is
// cancelled or the consumer is exhausted. It blocks until all workers have
// drained their queues.
func (uc *ProcessRecordsUseCase) Run(ctx context.Context) error {
	defer uc.stopWorkers()

	for {
		rec, err := uc.consumer.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				uc.logger.Info("processor stopping", "reason", ctx.Err())
				return nil
			}
			return fmt.Errorf("fetch failed: %w", err)
		}

		uc.dispatch(ctx, rec)
	}
}

// dispatch routes the record to its partition worker, starting the worker
// on first use. The send blocks when the worker queue is full.
func (uc *ProcessRecordsUseCase) dispatch(ctx context.Context, rec domain.Record) {
	uc.mu.Lock()
	ch, ok := uc.workers[rec.Partition]
	if !ok {
		ch = make(chan domain.Record, uc.queueSize)
		uc.workers[rec.Partition] = ch
		uc.wg.Add(1)
		go uc.runWorker(ctx, rec.Partition, ch)
	}
	uc.mu.Unlock()

	select {
	case ch <- rec:
	case <-ctx.Done():
	}
}

func (uc *ProcessRecordsUseCase) stopWorkers() {
	uc.mu.Lock()
	for _, ch := range uc.workers {
		close(ch)
	}
	uc.workers = make(map[int]chan domain.Record)
	uc.mu.Unlock()
	uc.wg.Wait()
}

func (uc *ProcessRecordsUseCase) runWorker(ctx context.Context, partition int, ch <-chan domain.Record) {
	defer uc.wg.Done()
	uc.logger.Info("partition worker started", "partition", partition)

	for rec := range ch {
		uc.HandleRecord(ctx, rec)
	}

	uc.logger.Info("partition worker stopped", "partition", partition)
}

// HandleRecord processes a single record to a durable outcome (indexed,
// confirmed duplicate, or dead-lettered) and then commits its offset.
// The partition never stalls on a poison record.
func (uc *ProcessRecordsUseCase) HandleRecord(ctx context.Context, rec domain.Record) {
	ctx, span := otel.Tracer("processor-service").Start(ctx, "HandleRecord")
	defer span.End()

	var event domain.LogEvent
	if err := json.Unmarshal(rec.Value, &event); err != nil {
		if uc.deadLetter(ctx, rec, fmt.Sprintf("malformed payload: %v", err)) {
			uc.commit(ctx, rec)
		}
		return
	}
	event.Canonicalize()
	if err := event.Validate(); err != nil {
		if uc.deadLetter(ctx, rec, fmt.Sprintf("invalid event: %v", err)) {
			uc.commit(ctx, rec)
		}
		return
	}

	docID := routing.DocumentID(event, uc.processorID, rec.Offset)
	index := routing.IndexName(event.Timestamp)

	err := uc.indexWithRetry(ctx, index, docID, event)
	switch {
	case err == nil:
		uc.metrics.RecordsTotal.WithLabelValues("indexed").Inc()
		uc.logger.Debug("indexed log event",
			"tenant_id", event.TenantID, "index", index, "doc_id", docID,
			"partition", rec.Partition, "offset", rec.Offset)
	case errors.Is(err, domain.ErrDocumentExists):
		// Already indexed by a prior delivery.
		uc.metrics.RecordsTotal.WithLabelValues("duplicate").Inc()
		uc.logger.Debug("duplicate delivery confirmed",
			"doc_id", docID, "partition", rec.Partition, "offset", rec.Offset)
	default:
		if !uc.deadLetter(ctx, rec, fmt.Sprintf("indexing failed: %v", err)) {
			return
		}
	}

	uc.commit(ctx, rec)
}

// indexWithRetry ensures the destination index exists and attempts the
// create-only write. Transient store failures are retried with bounded
// exponential backoff; permanent rejections and duplicate confirmations
// return immediately.
func (uc *ProcessRecordsUseCase) indexWithRetry(ctx context.Context, index, docID string, event domain.LogEvent) error {
	backoff := uc.baseBackoff
	var lastErr error

	for attempt := 0; attempt < uc.maxRetries; attempt++ {
		if attempt > 0 {
			uc.metrics.RetriesTotal.Inc()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			if backoff > uc.maxBackoff {
				backoff = uc.maxBackoff
			}
		}

		if err := uc.store.EnsureIndex(ctx, index); err != nil {
			lastErr = err
			if errors.Is(err, domain.ErrStoreUnavailable) {
				continue
			}
			return err
		}

		err := uc.store.CreateDocument(ctx, index, docID, event)
		if err == nil || errors.Is(err, domain.ErrDocumentExists) || errors.Is(err, domain.ErrBadDocument) {
			return err
		}

		lastErr = err
		uc.logger.Warn("store write failed, retrying",
			"index", index, "doc_id", docID, "attempt", attempt+1, "error", err)
	}

	return fmt.Errorf("retries exhausted: %w", lastErr)
}

// deadLetter reports whether the record was durably handed to the DLQ.
// When it fails, the offset stays uncommitted and the record is redelivered.
func (uc *ProcessRecordsUseCase) deadLetter(ctx context.Context, rec domain.Record, reason string) bool {
	if err := uc.dlq.Send(ctx, rec, reason); err != nil {
		uc.logger.Error("failed to dead-letter record, leaving offset uncommitted",
			"partition", rec.Partition, "offset", rec.Offset, "reason", reason, "error", err)
		return false
	}
	uc.metrics.RecordsTotal.WithLabelValues("dead_lettered").Inc()
	return true
}

func (uc *ProcessRecordsUseCase) commit(ctx context.Context, rec domain.Record) {
	if err := uc.consumer.Commit(ctx, rec); err != nil {
		// Redelivery after a failed commit is safe: the document id is
		// recomputed and the create-only write reports a duplicate.
		uc.logger.Error("failed to commit offset",
			"partition", rec.Partition, "offset", rec.Offset, "error", err)
	}
}
