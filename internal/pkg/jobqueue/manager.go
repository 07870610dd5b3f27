package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/foundersbridge/foundersbridge/internal/pkg/env"
	metrics "github.com/foundersbridge/foundersbridge/internal/pkg/metrics/counter"
)

const (
	defaultWorkerCount      = 5
	defaultSweepIntervalMin = 30
	defaultExpirySweepBatch = 100
	counterFlushInterval    = 5 * time.Second
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	sweepTicker        *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		globalManager = &Manager{
			queue:  NewQueue(getWorkerCount()),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Start expiry sweep scheduler - configurable interval
	sweepInterval := getSweepInterval()
	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.expirySweepWorker(sweepInterval)

	// Start counter flush worker (Redis -> DB)
	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// expirySweepWorker periodically enqueues an engagement expiry sweep job
func (m *Manager) expirySweepWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started expiry sweep worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Expiry sweep worker stopping")
			return
		case <-m.sweepTicker.C:
			payload := EngagementExpiryJobPayload{BatchSize: defaultExpirySweepBatch}
			if _, err := m.queue.EnqueueJob(JobTypeEngagementExpiry, payload.ToMap()); err != nil {
				log.Errorf("[JobQueue Manager] Error enqueuing expiry sweep: %v", err)
			}
		}
	}
}

// counterFlushWorker periodically flushes pending counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := m.flushCountersOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

func (m *Manager) flushCountersOnce() error {
	// Flush Redis -> DB (batched CASE update)
	return metrics.FlushAll()
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunExpirySweepOnce exposes a manual trigger for a single expiry sweep
func (m *Manager) RunExpirySweepOnce() error {
	payload := EngagementExpiryJobPayload{BatchSize: defaultExpirySweepBatch}
	_, err := m.queue.EnqueueJob(JobTypeEngagementExpiry, payload.ToMap())
	return err
}

func getWorkerCount() int {
	if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "")); err == nil && v > 0 {
		return v
	}
	return defaultWorkerCount
}

func getSweepInterval() time.Duration {
	if v, err := strconv.Atoi(env.GetEnv("ENGAGEMENT_SWEEP_MINUTES", "")); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return defaultSweepIntervalMin * time.Minute
}
