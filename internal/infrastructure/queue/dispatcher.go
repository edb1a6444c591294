package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/plan2protect/platform/internal/api/metrics"
	"github.com/plan2protect/platform/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64

	// abandonTimeout bounds marking one leftover job failed on shutdown.
	abandonTimeout = 5 * time.Second
)

// Dispatcher runs analysis jobs on a fixed set of workers, sharded by
// assessment id so retries of one assessment never run concurrently.
type Dispatcher struct {
	workers   []chan ports.AnalysisJob
	processor ports.AnalysisProcessor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, processor ports.AnalysisProcessor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.AnalysisJob, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AnalysisJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled;
// jobs still buffered at that point are abandoned, not dropped.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands job to its shard without blocking. It reports false when the
// shard's buffer is full.
func (d *Dispatcher) Enqueue(job ports.AnalysisJob) bool {
	idx := d.shardIndex(job.AssessmentID)
	select {
	case d.workers[idx] <- job:
		metrics.AnalysisQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return true
	default:
		d.log.Warn().Str("assessment_id", job.AssessmentID).Msg("analysis queue full")
		return false
	}
}

// shardIndex maps an assessment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AnalysisJob) {
	defer d.wg.Done()
	depth := metrics.AnalysisQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch, depth)
			return
		case job := <-ch:
			depth.Dec()
			if ctx.Err() != nil {
				d.abandon(ctx, id, job)
				continue
			}
			start := time.Now()
			err := d.processor.Process(ctx, job)
			result := "ok"
			if err != nil {
				result = "error"
				d.log.Error().Err(err).
					Str("assessment_id", job.AssessmentID).
					Int("worker_id", id).
					Msg("analysis failed")
			}
			metrics.AnalysisDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		}
	}
}

// drain abandons every job left in ch without blocking.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan ports.AnalysisJob, depth prometheus.Gauge) {
	for {
		select {
		case job := <-ch:
			depth.Dec()
			d.abandon(ctx, id, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) abandon(ctx context.Context, id int, job ports.AnalysisJob) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abandonTimeout)
	defer cancel()
	if err := d.processor.Abandon(ctx, job); err != nil {
		d.log.Error().Err(err).
			Str("assessment_id", job.AssessmentID).
			Int("worker_id", id).
			Msg("failed to abandon analysis")
	}
}
