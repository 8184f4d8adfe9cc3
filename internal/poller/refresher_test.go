package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartbedding/panel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusResponse(ssid string) *models.ApiResponse[models.DeviceStatus] {
	data, _ := json.Marshal(models.ConnectivityAnswer{WifiSSID: ssid})
	res := models.NewSuccessResponse(models.DeviceStatus(data), "")
	return &res
}

func offlineResponse() *models.ApiResponse[models.DeviceStatus] {
	res := models.NewFailureResponse[models.DeviceStatus]("device offline")
	return &res
}

func ssidOf(t *testing.T, snapshot models.Snapshot) string {
	t.Helper()
	answer, err := models.DecodeConnectivity(snapshot.Data)
	require.NoError(t, err)
	return answer.WifiSSID
}

func TestRefresher_InitialState(t *testing.T) {
	refresher := NewRefresher(nil, 0)

	snapshot := refresher.Snapshot()
	assert.True(t, snapshot.Loading)
	assert.False(t, snapshot.Refreshing)
	assert.False(t, snapshot.HasData())
	assert.Equal(t, DefaultInterval, refresher.Interval())
}

func TestRefresher_TickSuccess(t *testing.T) {
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		return statusResponse("home"), nil
	}, time.Hour)

	cycle := refresher.Tick()
	assert.Equal(t, models.PollOutcomeSuccess, cycle.Outcome)
	assert.Equal(t, uint64(0), cycle.Tick)

	snapshot := refresher.Snapshot()
	assert.False(t, snapshot.Loading)
	assert.False(t, snapshot.Refreshing)
	assert.Equal(t, "home", ssidOf(t, snapshot))
	require.NotNil(t, snapshot.LastCycle)
	assert.True(t, snapshot.LastCycle.Succeeded())
}

func TestRefresher_FailuresRetainPreviousData(t *testing.T) {
	responses := []struct {
		res *models.ApiResponse[models.DeviceStatus]
		err error
	}{
		{res: statusResponse("home")},
		{res: offlineResponse()},
		{err: errors.New("connection reset")},
		{res: nil},
	}

	var call int
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		r := responses[call]
		call++
		return r.res, r.err
	}, time.Hour)

	assert.Equal(t, models.PollOutcomeSuccess, refresher.Tick().Outcome)

	cycle := refresher.Tick()
	assert.Equal(t, models.PollOutcomeSoftFailure, cycle.Outcome)
	assert.Equal(t, "device offline", cycle.Message)
	assert.Equal(t, "home", ssidOf(t, refresher.Snapshot()))

	cycle = refresher.Tick()
	assert.Equal(t, models.PollOutcomeHardFailure, cycle.Outcome)
	assert.Error(t, cycle.Err)
	assert.Equal(t, "home", ssidOf(t, refresher.Snapshot()))

	cycle = refresher.Tick()
	assert.Equal(t, models.PollOutcomeHardFailure, cycle.Outcome)

	snapshot := refresher.Snapshot()
	assert.Equal(t, "home", ssidOf(t, snapshot))
	assert.False(t, snapshot.Loading)
	assert.False(t, snapshot.Refreshing)
}

func TestRefresher_FirstTickFailureClearsLoading(t *testing.T) {
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		return offlineResponse(), nil
	}, time.Hour)

	refresher.Tick()

	snapshot := refresher.Snapshot()
	assert.False(t, snapshot.Loading, "a failed first tick must not leave the view loading")
	assert.False(t, snapshot.HasData())
}

func TestRefresher_LatestTickWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	var calls atomic.Int32
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		if calls.Add(1) == 1 {
			close(started)
			// Ignore cancellation on purpose, the late result must still be dropped
			<-release
			return statusResponse("stale"), nil
		}
		return statusResponse("fresh"), nil
	}, time.Hour)

	var wg sync.WaitGroup
	wg.Add(1)
	var first models.PollCycle
	go func() {
		defer wg.Done()
		first = refresher.Tick()
	}()

	<-started
	assert.True(t, refresher.Snapshot().Refreshing)

	second := refresher.Tick()
	assert.Equal(t, uint64(1), second.Tick)
	assert.Equal(t, "fresh", ssidOf(t, refresher.Snapshot()))

	close(release)
	wg.Wait()

	assert.Equal(t, uint64(0), first.Tick)
	snapshot := refresher.Snapshot()
	assert.Equal(t, "fresh", ssidOf(t, snapshot))
	assert.Equal(t, uint64(1), snapshot.LastCycle.Tick)
	assert.False(t, snapshot.Refreshing)
}

func TestRefresher_NewTickCancelsPrevious(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})

	var calls atomic.Int32
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return statusResponse("fresh"), nil
	}, time.Hour)

	go refresher.Tick()
	<-started

	refresher.Tick()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("previous tick was not cancelled")
	}
}

func TestRefresher_StopDiscardsInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		close(started)
		<-release
		return statusResponse("late"), nil
	}, time.Hour)

	updates, cancel := refresher.Updates()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		refresher.Tick()
	}()

	<-started
	refresher.Stop()
	close(release)
	<-done

	assert.False(t, refresher.Snapshot().HasData())

	// Stop closes the updates channel
	for range updates {
	}

	cycle := refresher.Tick()
	assert.ErrorIs(t, cycle.Err, ErrStopped)
	assert.ErrorIs(t, refresher.Start(context.Background()), ErrStopped)
}

func TestRefresher_StartPollsAtInterval(t *testing.T) {
	var calls atomic.Int32
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		// Every tick reports the device offline, polling must carry on regardless
		calls.Add(1)
		return offlineResponse(), nil
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, refresher.Start(ctx))
	assert.ErrorIs(t, refresher.Start(ctx), ErrAlreadyRunning)

	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	snapshot := refresher.Snapshot()
	assert.False(t, snapshot.Loading)
	assert.False(t, snapshot.HasData())

	cancel()

	assert.Eventually(t, refresher.Stopped, time.Second, 10*time.Millisecond)

	stoppedAt := calls.Load()
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), stoppedAt+1)
}

func TestRefresher_UpdatesPublishSnapshots(t *testing.T) {
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		return statusResponse("home"), nil
	}, time.Hour)

	updates, cancel := refresher.Updates()
	defer cancel()

	refresher.Tick()

	var last models.Snapshot
	for {
		select {
		case snapshot := <-updates:
			last = snapshot
			continue
		default:
		}
		break
	}

	assert.False(t, last.Refreshing)
	assert.Equal(t, "home", ssidOf(t, last))
}

func TestRefresher_StopDropsUndeliveredSnapshots(t *testing.T) {
	refresher := NewRefresher(func(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {
		return statusResponse("home"), nil
	}, time.Hour)

	updates, cancel := refresher.Updates()
	defer cancel()

	refresher.Tick()
	refresher.Stop()

	_, ok := <-updates
	assert.False(t, ok, "no snapshot may be observed once Stop has returned")
}
