package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/task-manager/pkg/metrics"
	"github.com/99minutos/task-manager/internal/core/domain"
	"github.com/99minutos/task-manager/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher records task activity in the background. Records are sharded
// over a fixed set of workers by task id so each task's trail is written in
// the order it was published.
type Dispatcher struct {
	workers []chan domain.TaskActivity
	repo    ports.ActivityRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	return newDispatcher(numWorkers, channelBuffer, repo, log)
}

func newDispatcher(numWorkers, buffer int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskActivity, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskActivity, buffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled; Wait blocks
// until all of them have returned.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish queues an activity record without blocking. When the shard is
// full the record is dropped and counted.
func (d *Dispatcher) Publish(activity domain.TaskActivity) {
	idx := d.shardIndex(activity.TaskID)
	select {
	case d.workers[idx] <- activity:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityDroppedTotal.Inc()
		d.log.Warn().
			Str("task_id", activity.TaskID).
			Str("action", string(activity.Action)).
			Int("worker_id", idx).
			Msg("activity queue full, record dropped")
	}
}

func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TaskActivity) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case activity, ok := <-ch:
			if !ok {
				return
			}
			metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.record(ctx, id, activity)
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, activity domain.TaskActivity) {
	start := time.Now()
	err := d.repo.Insert(ctx, &activity)
	result := "ok"
	if err != nil {
		result = "error"
		d.log.Error().Err(err).
			Str("task_id", activity.TaskID).
			Str("action", string(activity.Action)).
			Int("worker_id", id).
			Msg("activity record failed")
	}
	metrics.ActivityRecordDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
