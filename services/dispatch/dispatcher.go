package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/dto"
	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
)

// JobPublisher is the broker-facing slice of the dispatcher, satisfied by
// RabbitMQPublisher.
type JobPublisher interface {
	Publish(ctx context.Context, message interface{}) error
}

type queuedJob struct {
	ref dto.JobRef
	job dto.ExtractionJob
}

// Dispatcher hands extraction jobs to the broker without making the caller
// wait on it. Submit enqueues and returns; a background worker delivers with
// bounded retries and marks the attachment not_submitted when delivery is
// given up on. Ingestion throughput is never coupled to broker health.
type Dispatcher struct {
	log        logger.Logger
	publisher  JobPublisher
	attachRepo interfaces.AttachmentRepository
	cfg        *config.DispatchConfig

	jobs chan queuedJob
	done chan struct{}

	mu       sync.Mutex
	draining bool
}

func NewDispatcher(log logger.Logger, publisher JobPublisher, attachRepo interfaces.AttachmentRepository, cfg *config.DispatchConfig) *Dispatcher {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = 1024
	}
	d := &Dispatcher{
		log:        log,
		publisher:  publisher,
		attachRepo: attachRepo,
		cfg:        cfg,
		jobs:       make(chan queuedJob, capacity),
		done:       make(chan struct{}),
	}
	go d.work()
	return d
}

// Submit enqueues a job and returns its reference immediately. A full queue
// or a draining dispatcher is an error the caller records as not_submitted.
func (d *Dispatcher) Submit(ctx context.Context, job dto.ExtractionJob) (dto.JobRef, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "Dispatcher.Submit")
	defer span.Finish()
	tracing.TagComponentDispatcher(span)
	tracing.TagEntity(span, job.AttachmentID)

	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		tracing.TraceErr(span, ingesterr.ErrDispatcherDraining)
		return dto.JobRef{}, ingesterr.ErrDispatcherDraining
	}
	d.mu.Unlock()

	ref := dto.JobRef{
		ID:           uuid.NewString(),
		AttachmentID: job.AttachmentID,
	}

	select {
	case d.jobs <- queuedJob{ref: ref, job: job}:
		return ref, nil
	default:
		err := errors.Wrap(ingesterr.ErrExtractionNotSubmitted, "dispatch queue full")
		tracing.TraceErr(span, err)
		return dto.JobRef{}, err
	}
}

// Drain stops intake and waits for the queued jobs to be delivered, up to
// the context deadline.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return nil
	}
	d.draining = true
	d.mu.Unlock()

	close(d.jobs)

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer close(d.done)

	for queued := range d.jobs {
		d.deliver(queued)
	}
}

func (d *Dispatcher) deliver(queued queuedJob) {
	span, ctx := tracing.StartTracerSpan(context.Background(), "Dispatcher.deliver")
	defer span.Finish()
	tracing.TagComponentDispatcher(span)
	tracing.TagEntity(span, queued.job.AttachmentID)

	maxRetries := d.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	backoff := time.Duration(d.cfg.BackoffSeconds) * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		lastErr = d.publisher.Publish(ctx, queued.job)
		if lastErr == nil {
			return
		}
		d.log.Warnf("extraction job %s delivery attempt %d failed: %v", queued.ref.ID, attempt+1, lastErr)
	}

	// Delivery is given up on; the record says so instead of staying
	// pending forever.
	tracing.TraceErr(span, lastErr)
	d.log.Errorf("extraction job %s for attachment %s abandoned after %d attempts: %v",
		queued.ref.ID, queued.job.AttachmentID, maxRetries, lastErr)
	if err := d.attachRepo.UpdateExtractionStatus(ctx, queued.job.AttachmentID, enum.ExtractionNotSubmitted); err != nil {
		d.log.Errorf("failed to mark attachment %s not_submitted: %v", queued.job.AttachmentID, err)
	}
}
