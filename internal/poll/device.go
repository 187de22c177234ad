package poll

import (
	"context"
	"time"

	"whatsapp-console/internal/models"
)

// StatusFetcher fetches one device's pairing status.
type StatusFetcher interface {
	DeviceStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error)
}

// deviceTerminal reports statuses that end the pairing lifecycle and
// with it the poll. Polling past a settled status only burns requests.
func deviceTerminal(status string) bool {
	switch status {
	case "connected", "banned", "removed":
		return true
	}
	return false
}

// WatchDevice polls a device's QR/status at the given interval, feeding
// every payload to apply. The loop stops when the owner cancels ctx or
// the device reaches a terminal status. Fetch errors do not stop the
// loop; the next tick retries.
func WatchDevice(ctx context.Context, fetcher StatusFetcher, deviceID string, interval time.Duration, apply func(models.DeviceStatus)) *Handle {
	return Start(ctx, interval, 0, func(ctx context.Context) bool {
		status, err := fetcher.DeviceStatus(ctx, deviceID)
		if err != nil {
			return false
		}
		apply(*status)
		return deviceTerminal(status.Status)
	}, nil)
}
