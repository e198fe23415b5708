package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gadgetghar/account-service/internal/api/metrics"
	"github.com/gadgetghar/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

type verificationJob struct {
	to   string
	link string
}

// MailDispatcher delivers best-effort verification emails off the request
// path. Jobs shard to a fixed set of workers by recipient, preserving
// per-recipient ordering; delivery failures are logged, never surfaced —
// signup must not depend on the mail provider.
type MailDispatcher struct {
	workers     []chan verificationJob
	gateway     ports.MailGateway
	sendTimeout time.Duration
	log         zerolog.Logger
}

// NewMailDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, gateway ports.MailGateway, sendTimeout time.Duration, log zerolog.Logger) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	d := &MailDispatcher{
		workers:     make([]chan verificationJob, numWorkers),
		gateway:     gateway,
		sendTimeout: sendTimeout,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan verificationJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// EnqueueVerification queues a verification email. When the worker's buffer
// is full the job is dropped with a log line rather than blocking the signup
// response.
func (d *MailDispatcher) EnqueueVerification(to, link string) {
	idx := d.shardIndex(to)
	select {
	case d.workers[idx] <- verificationJob{to: to, link: link}:
		metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.log.Error().Str("to", to).Msg("mail queue full, dropping verification email")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32()) % len(d.workers)
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan verificationJob) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))

			sendCtx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
			err := d.gateway.SendVerification(sendCtx, job.to, job.link)
			cancel()
			if err != nil {
				d.log.Error().Err(err).
					Str("to", job.to).
					Int("worker_id", id).
					Msg("verification email delivery failed")
			}
		}
	}
}
