package upstream

import (
	"context"
	"net/http"

	"whatsapp-console/internal/models"
)

func (c *Client) ListMessages(ctx context.Context, deviceID string) ([]models.Message, error) {
	var out []models.Message
	if err := c.do(ctx, http.MethodGet, "/messages/list/"+deviceID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, deviceID, to, message string) (*models.Message, error) {
	var out models.Message
	err := c.do(ctx, http.MethodPost, "/messages/send",
		map[string]string{"deviceId": deviceID, "to": to, "message": message}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkSendResult reports per-recipient delivery acceptance.
type BulkSendResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Failures []string `json:"failures,omitempty"`
}

func (c *Client) SendBulk(ctx context.Context, deviceID string, recipients []string, message string) (*BulkSendResult, error) {
	var out BulkSendResult
	err := c.do(ctx, http.MethodPost, "/messages/bulk", map[string]interface{}{
		"deviceId":   deviceID,
		"recipients": recipients,
		"message":    message,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
