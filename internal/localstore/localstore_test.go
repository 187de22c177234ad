package localstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/upstream"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "console.db"),
	})
	require.NoError(t, err)
	return s
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	// empty store yields empty credentials, not an error
	creds, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Empty(t, creds.Token)

	require.NoError(t, s.SaveCredentials(upstream.Credentials{Token: "t-1", RefreshToken: "r-1"}))
	creds, err = s.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "t-1", creds.Token)
	assert.Equal(t, "r-1", creds.RefreshToken)

	// saving again overwrites the singleton row
	require.NoError(t, s.SaveCredentials(upstream.Credentials{Token: "t-2", RefreshToken: "r-2"}))
	creds, _ = s.LoadCredentials()
	assert.Equal(t, "t-2", creds.Token)

	require.NoError(t, s.ClearCredentials())
	creds, err = s.LoadCredentials()
	require.NoError(t, err)
	assert.Empty(t, creds.Token)
}

func TestPendingPaymentMarker(t *testing.T) {
	s := openTestStore(t)

	marker, err := s.LoadPendingPayment()
	require.NoError(t, err)
	assert.Nil(t, marker)

	require.NoError(t, s.SavePendingPayment("pay-1", "plan-1"))
	marker, err = s.LoadPendingPayment()
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, "pay-1", marker.PaymentID)
	assert.Equal(t, "plan-1", marker.PlanID)

	require.NoError(t, s.ClearPendingPayment("pay-1"))
	marker, err = s.LoadPendingPayment()
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestReceipts(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveReceipt(ReceiptRecord{
		PaymentID: "pay-1",
		PlanID:    "plan-1",
		PlanName:  "Pro",
		Amount:    49.9,
		Currency:  "USD",
		PaidAt:    "2026-08-30T10:00:00Z",
	}))

	receipts, err := s.Receipts()
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "Pro", receipts[0].PlanName)
}
