package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sentinela/identity-service/internal/api/metrics"
	"github.com/sentinela/identity-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

type resetNotification struct {
	email string
	token string
}

// Dispatcher delivers password-reset notifications asynchronously through a
// fixed set of workers, sharding by recipient email so notifications for the
// same account are delivered in order. It implements ports.Notifier: the
// identity service hands off a message and returns immediately.
type Dispatcher struct {
	workers []chan resetNotification
	sender  ports.Notifier
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers wrapping
// the given delivery backend. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan resetNotification, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan resetNotification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// SendPasswordReset enqueues the notification for asynchronous delivery.
// Non-blocking up to channelBuffer capacity per worker.
func (d *Dispatcher) SendPasswordReset(_ context.Context, email, token string) error {
	i := d.shardIndex(email)
	d.workers[i] <- resetNotification{email: email, token: token}
	metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(i)).Set(float64(len(d.workers[i])))
	return nil
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan resetNotification) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotifyQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.sender.SendPasswordReset(ctx, n.email, n.token); err != nil {
				d.log.Error().Err(err).
					Str("email", n.email).
					Int("worker_id", id).
					Msg("reset notification delivery failed")
			}
		}
	}
}
