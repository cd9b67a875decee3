package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/identitykit/identity-core/internal/api/metrics"
	"github.com/identitykit/identity-core/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes notifications to a fixed set of workers using consistent
// hashing on the recipient address, guaranteeing per-recipient delivery
// ordering (a verification mail never overtakes the reset mail that followed
// it). It keeps token delivery off the request path: Send only enqueues.
type Dispatcher struct {
	workers  []chan ports.Notification
	delivery ports.Notifier
	log      zerolog.Logger
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers in
// front of the delivery notifier. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, delivery ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.Notification, numWorkers),
		delivery: delivery,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Send enqueues a notification for the worker responsible for its recipient.
// The call is non-blocking up to channelBuffer capacity and never fails the
// calling flow.
func (d *Dispatcher) Send(_ context.Context, n ports.Notification) error {
	idx := d.shardIndex(n.Email)
	d.workers[idx] <- n
	metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return nil
}

// shardIndex maps a recipient address deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationsQueueDepth.WithLabelValues(worker).Set(float64(len(ch)))
			if err := d.delivery.Send(ctx, n); err != nil {
				metrics.NotificationsFailedTotal.WithLabelValues(string(n.Kind)).Inc()
				d.log.Error().Err(err).
					Str("kind", string(n.Kind)).
					Int("worker_id", id).
					Msg("notification delivery failed")
				continue
			}
			metrics.NotificationsSentTotal.WithLabelValues(string(n.Kind)).Inc()
		}
	}
}
