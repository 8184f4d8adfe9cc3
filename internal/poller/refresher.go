package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/events"
	"github.com/smartbedding/panel/internal/models"
)

// DefaultInterval is the device status polling interval.
const DefaultInterval = 8 * time.Second

var (
	ErrAlreadyRunning = errors.New("refresher is already running")
	ErrStopped        = errors.New("refresher has been stopped")
)

// FetchFunc performs a single status request.
type FetchFunc func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error)

// Refresher keeps a status snapshot fresh. Ticks fire at a fixed rate measured
// from the start of the previous tick. A new tick supersedes any tick still in
// flight: the older request is cancelled and whatever it eventually returns is
// discarded. Failures never stop the loop, they only mean "no update".
type Refresher struct {
	fetch    FetchFunc
	interval time.Duration

	mu        sync.Mutex
	snapshot  models.Snapshot
	nextTick  uint64
	current   uint64
	inFlight  context.CancelFunc
	parent    context.Context
	cancel    context.CancelFunc
	scheduler *gocron.Scheduler
	running   bool
	stopped   bool

	updates *events.Feed[models.Snapshot]
}

func NewRefresher(fetch FetchFunc, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}

	parent, cancel := context.WithCancel(context.Background())

	return &Refresher{
		fetch:    fetch,
		interval: interval,
		snapshot: models.Snapshot{Loading: true},
		parent:   parent,
		cancel:   cancel,
		updates:  events.NewFeed[models.Snapshot](),
	}
}

func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Start issues tick 0 immediately and schedules the following ticks. The
// refresher stops on its own when ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	if r.running {
		return ErrAlreadyRunning
	}

	scheduler := gocron.NewScheduler(time.Local)

	_, err := scheduler.Every(r.interval).Do(func() {
		r.Tick()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule status polling: %w", err)
	}

	r.scheduler = scheduler
	r.running = true

	logrus.WithFields(logrus.Fields{
		"interval": r.interval,
	}).Debugln("Starting status polling")

	scheduler.StartAsync()

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.parent.Done():
		}
	}()

	return nil
}

// Stop cancels the schedule and any tick in flight. No update is applied or
// published once Stop returns.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.running = false
	if r.inFlight != nil {
		r.inFlight()
		r.inFlight = nil
	}
	scheduler := r.scheduler
	r.scheduler = nil
	r.cancel()
	r.mu.Unlock()

	if scheduler != nil {
		scheduler.Stop()
	}

	r.updates.Close()

	logrus.Debugln("Stopped status polling")
}

func (r *Refresher) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Snapshot returns the current view state.
func (r *Refresher) Snapshot() models.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// Updates subscribes to snapshot changes.
func (r *Refresher) Updates() (<-chan models.Snapshot, func()) {
	return r.updates.Subscribe()
}

// Tick runs a single poll cycle and reports what happened. The returned
// cycle is informational only; it may have been discarded if a newer tick
// started or the refresher stopped while it was in flight.
func (r *Refresher) Tick() models.PollCycle {

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return models.PollCycle{Outcome: models.PollOutcomeHardFailure, Err: ErrStopped}
	}

	// Switch to the latest tick
	if r.inFlight != nil {
		r.inFlight()
	}

	tick := r.nextTick
	r.nextTick++
	r.current = tick

	ctx, cancel := context.WithCancel(r.parent)
	r.inFlight = cancel

	r.snapshot.Refreshing = true
	r.updates.Publish(r.snapshot)
	r.mu.Unlock()

	cycle := models.PollCycle{
		Tick:      tick,
		StartedAt: time.Now(),
	}

	res, err := r.fetch(ctx)
	cycle.Duration = time.Since(cycle.StartedAt)
	cancel()

	switch {
	case err != nil:
		cycle.Outcome = models.PollOutcomeHardFailure
		cycle.Err = err
		cycle.Message = err.Error()
	case res == nil:
		cycle.Outcome = models.PollOutcomeHardFailure
		cycle.Err = fmt.Errorf("empty response")
		cycle.Message = cycle.Err.Error()
	case !res.Accepted():
		cycle.Outcome = models.PollOutcomeSoftFailure
		cycle.Message = res.GetMessage()
	default:
		cycle.Outcome = models.PollOutcomeSuccess
	}

	if !cycle.Succeeded() {
		logrus.WithFields(logrus.Fields{
			"tick":    cycle.Tick,
			"outcome": cycle.Outcome,
			"message": cycle.Message,
		}).Warnln("Status poll produced no update")
	}

	r.apply(cycle, res)

	return cycle
}

func (r *Refresher) apply(cycle models.PollCycle, res *models.ApiResponse[models.DeviceStatus]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || cycle.Tick != r.current {
		logrus.WithFields(logrus.Fields{
			"tick":    cycle.Tick,
			"current": r.current,
			"stopped": r.stopped,
		}).Debugln("Discarding superseded poll result")
		return
	}

	if cycle.Succeeded() {
		r.snapshot.Data = *res.Data
		r.snapshot.UpdatedAt = time.Now()
	}

	r.snapshot.Loading = false
	r.snapshot.Refreshing = false
	r.snapshot.LastCycle = &cycle
	r.inFlight = nil

	// Published under the lock so subscribers see ticks in order
	r.updates.Publish(r.snapshot)
}
