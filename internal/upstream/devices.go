package upstream

import (
	"context"
	"net/http"

	"whatsapp-console/internal/models"
)

func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var out []models.Device
	if err := c.do(ctx, http.MethodGet, "/devices/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDevice(ctx context.Context, name string) (*models.Device, error) {
	var out models.Device
	err := c.do(ctx, http.MethodPost, "/devices/add", map[string]string{"name": name}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeviceStatus fetches the pairing state for one device. During pairing
// the payload carries a fresh QR; once paired it carries the connection
// status only.
func (c *Client) DeviceStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	var out models.DeviceStatus
	if err := c.do(ctx, http.MethodGet, "/devices/status/"+deviceID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveDevice(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodDelete, "/devices/remove/"+deviceID, nil, nil)
}
