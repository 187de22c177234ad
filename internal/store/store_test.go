package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

// nopCreds satisfies the client's credential store without a token, so
// test requests go out unauthenticated and no refresh path triggers.
type nopCreds struct{}

func (nopCreds) LoadCredentials() (upstream.Credentials, error) { return upstream.Credentials{}, nil }
func (nopCreds) SaveCredentials(upstream.Credentials) error     { return nil }
func (nopCreds) ClearCredentials() error                        { return nil }

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds(slice string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Slice == slice {
			out = append(out, e.Kind)
		}
	}
	return out
}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *recorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := upstream.NewClient(srv.URL, nopCreds{}, zap.NewNop())
	rec := &recorder{}
	return New(client, rec, zap.NewNop()), rec
}

func TestStaleFulfillmentIsDropped(t *testing.T) {
	s := newSlice("test", nil, zap.NewNop())

	first := s.begin()
	second := s.begin()

	assert.False(t, s.fulfill(first, func() { t.Error("stale mutation must not run") }))
	assert.True(t, s.fulfill(second, nil))
	assert.False(t, s.flags().Loading)
}

func TestStaleRejectionIsDropped(t *testing.T) {
	s := newSlice("test", nil, zap.NewNop())

	first := s.begin()
	second := s.begin()

	assert.False(t, s.reject(first, assert.AnError))
	assert.Empty(t, s.flags().Error, "stale rejection must not surface")

	assert.True(t, s.reject(second, assert.AnError))
	assert.NotEmpty(t, s.flags().Error)
}

func TestStaleFetchPublishesNoFulfilledEvent(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	arrived := make(chan struct{})
	release := make(chan struct{})

	st, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(arrived)
			<-release
			json.NewEncoder(w).Encode([]models.Device{{ID: "dev-1", Name: "Stale"}})
			return
		}
		json.NewEncoder(w).Encode([]models.Device{{ID: "dev-2", Name: "Fresh"}})
	}))

	// the first fetch stalls at the platform while a second one
	// starts and finishes
	done := make(chan error, 1)
	go func() { done <- st.Devices.Fetch(context.Background()) }()
	<-arrived

	require.NoError(t, st.Devices.Fetch(context.Background()))
	close(release)
	require.NoError(t, <-done)

	snap := st.Devices.Snapshot()
	require.Len(t, snap.Devices, 1)
	assert.Equal(t, "Fresh", snap.Devices[0].Name)
	assert.Equal(t, []string{"pending", "pending", "fulfilled"}, rec.kinds("devices"),
		"the superseded fetch must not announce a fulfillment")
}

func TestBeginClearsPreviousError(t *testing.T) {
	s := newSlice("test", nil, zap.NewNop())

	id := s.begin()
	s.reject(id, assert.AnError)
	require.NotEmpty(t, s.flags().Error)

	s.begin()
	flags := s.flags()
	assert.True(t, flags.Loading)
	assert.Empty(t, flags.Error)
}

func TestDevicesFetchPublishesLifecycle(t *testing.T) {
	st, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Device{{ID: "dev-1", Name: "Shop"}})
	}))

	require.NoError(t, st.Devices.Fetch(context.Background()))

	snap := st.Devices.Snapshot()
	require.Len(t, snap.Devices, 1)
	assert.Equal(t, "Shop", snap.Devices[0].Name)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"pending", "fulfilled"}, rec.kinds("devices"))
}

func TestDevicesFetchRejection(t *testing.T) {
	st, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"platform down"}`))
	}))

	err := st.Devices.Fetch(context.Background())
	require.Error(t, err)

	snap := st.Devices.Snapshot()
	assert.Equal(t, "platform down", snap.Error)
	assert.False(t, snap.Loading)
	assert.Equal(t, []string{"pending", "rejected"}, rec.kinds("devices"))
}

func TestApplyStatusMergesTransientFields(t *testing.T) {
	st, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Device{{ID: "dev-1", Name: "Shop"}})
	}))
	require.NoError(t, st.Devices.Fetch(context.Background()))

	st.Devices.ApplyStatus("dev-1", models.DeviceStatus{QR: "qr-1", Status: "pairing"})
	st.Devices.ApplyStatus("dev-1", models.DeviceStatus{Status: "connected"})

	d, ok := st.Devices.Device("dev-1")
	require.True(t, ok)
	assert.Equal(t, "connected", d.Status)
	assert.Equal(t, "qr-1", d.QR, "absent fields are not blanked by later ticks")
	assert.Contains(t, rec.kinds("devices"), "status")
}

func TestApplyStatusUnknownDeviceIsNoOp(t *testing.T) {
	st, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	st.Devices.ApplyStatus("ghost", models.DeviceStatus{Status: "connected"})
	_, ok := st.Devices.Device("ghost")
	assert.False(t, ok)
}

func TestSendBulkRejectsEmptyRecipients(t *testing.T) {
	st, rec := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("the platform must not be called for an empty recipient list")
	}))

	_, err := st.Messages.SendBulk(context.Background(), "dev-1", nil, "hi")
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, rec.kinds("messages"), "no transition for a locally rejected send")
}

func TestSendBulkStoresResult(t *testing.T) {
	st, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "dev-1", req["deviceId"])
		json.NewEncoder(w).Encode(upstream.BulkSendResult{Accepted: 2, Rejected: 1, Failures: []string{"+111"}})
	}))

	result, err := st.Messages.SendBulk(context.Background(), "dev-1", []string{"+222", "+333", "+111"}, "hi")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)

	snap := st.Messages.Snapshot()
	require.NotNil(t, snap.LastBulk)
	assert.Equal(t, []string{"+111"}, snap.LastBulk.Failures)
}

func TestPaymentSliceStickyTerminal(t *testing.T) {
	st, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"paymentId": "pay-1",
			"planId":    "plan-1",
			"redirect":  map[string]interface{}{"action": "https://gateway/pay", "method": "POST"},
		})
	}))

	_, err := st.Payment.Register(context.Background(), "plan-1")
	require.NoError(t, err)
	require.NoError(t, st.Payment.BeginProcessing())
	require.NoError(t, st.Payment.Complete(nil))

	// a late poll tick cannot drag a settled flow backwards
	assert.Error(t, st.Payment.BeginProcessing())
	assert.Equal(t, "completed", string(st.Payment.FlowState()))

	st.Payment.Reset()
	assert.Equal(t, "idle", string(st.Payment.FlowState()))
	assert.Empty(t, st.Payment.PaymentID())
}
