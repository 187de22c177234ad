package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/payment"
)

// scriptedFetcher replays a fixed sequence of statuses, then repeats
// the last one.
type scriptedFetcher struct {
	mu       sync.Mutex
	script   []models.DeviceStatus
	errFirst bool
	calls    int
}

func (f *scriptedFetcher) DeviceStatus(_ context.Context, _ string) (*models.DeviceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.errFirst && f.calls == 1 {
		return nil, errors.New("upstream hiccup")
	}
	i := f.calls - 1
	if f.errFirst {
		i--
	}
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	return &f.script[i], nil
}

func TestWatchDeviceStopsOnTerminalStatus(t *testing.T) {
	fetcher := &scriptedFetcher{script: []models.DeviceStatus{
		{Status: "pairing", QR: "qr-1"},
		{Status: "pairing", QR: "qr-2"},
		{Status: "connected"},
	}}

	var mu sync.Mutex
	var seen []string
	h := WatchDevice(context.Background(), fetcher, "dev-1", time.Millisecond, func(s models.DeviceStatus) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})
	waitDone(t, h)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, "connected", seen[2])
}

func TestWatchDeviceRetriesAfterFetchError(t *testing.T) {
	fetcher := &scriptedFetcher{
		errFirst: true,
		script:   []models.DeviceStatus{{Status: "connected"}},
	}

	var applied atomic.Int32
	h := WatchDevice(context.Background(), fetcher, "dev-1", time.Millisecond, func(models.DeviceStatus) {
		applied.Add(1)
	})
	waitDone(t, h)

	assert.Equal(t, int32(1), applied.Load())
}

func TestWatchDeviceCancelStopsLoop(t *testing.T) {
	fetcher := &scriptedFetcher{script: []models.DeviceStatus{{Status: "pairing"}}}

	ctx, cancel := context.WithCancel(context.Background())
	h := WatchDevice(ctx, fetcher, "dev-1", time.Millisecond, func(models.DeviceStatus) {})
	time.Sleep(10 * time.Millisecond)
	cancel()
	waitDone(t, h)
}

type recordingSink struct {
	mu       sync.Mutex
	terminal *payment.Status
	timedOut bool
}

func (s *recordingSink) OnTerminal(status payment.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminal = &status
}

func (s *recordingSink) OnTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timedOut = true
}

func (s *recordingSink) outcome() (*payment.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal, s.timedOut
}

func TestWatchPaymentReportsTerminalStatus(t *testing.T) {
	var calls atomic.Int32
	check := func(context.Context) (payment.Status, error) {
		if calls.Add(1) < 3 {
			return payment.StatusPending, nil
		}
		return payment.StatusCompleted, nil
	}

	sink := &recordingSink{}
	h := WatchPayment(context.Background(), time.Millisecond, time.Second, check, sink)
	waitDone(t, h)

	terminal, timedOut := sink.outcome()
	require.NotNil(t, terminal)
	assert.Equal(t, payment.StatusCompleted, *terminal)
	assert.False(t, timedOut)
}

func TestWatchPaymentTimesOut(t *testing.T) {
	check := func(context.Context) (payment.Status, error) {
		return payment.StatusPending, nil
	}

	sink := &recordingSink{}
	h := WatchPayment(context.Background(), time.Millisecond, 20*time.Millisecond, check, sink)
	waitDone(t, h)

	terminal, timedOut := sink.outcome()
	assert.Nil(t, terminal)
	assert.True(t, timedOut)
}

func TestWatchPaymentRetriesCheckErrors(t *testing.T) {
	var calls atomic.Int32
	check := func(context.Context) (payment.Status, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("upstream hiccup")
		}
		return payment.StatusFailed, nil
	}

	sink := &recordingSink{}
	h := WatchPayment(context.Background(), time.Millisecond, time.Second, check, sink)
	waitDone(t, h)

	terminal, timedOut := sink.outcome()
	require.NotNil(t, terminal)
	assert.Equal(t, payment.StatusFailed, *terminal)
	assert.False(t, timedOut)
}
