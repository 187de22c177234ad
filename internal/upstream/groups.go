package upstream

import (
	"context"
	"net/http"

	"whatsapp-console/internal/models"
)

func (c *Client) AvailableGroups(ctx context.Context, deviceID string) ([]models.AvailableGroup, error) {
	var out []models.AvailableGroup
	if err := c.do(ctx, http.MethodGet, "/groups/available/"+deviceID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SelectGroup(ctx context.Context, deviceID, groupID string) (*models.SelectedGroup, error) {
	var out models.SelectedGroup
	err := c.do(ctx, http.MethodPost, "/groups/select",
		map[string]string{"deviceId": deviceID, "groupId": groupID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]models.SelectedGroup, error) {
	var out []models.SelectedGroup
	if err := c.do(ctx, http.MethodGet, "/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateGroup PUTs the whole record; the isActive/autoReply toggles are
// never patched individually.
func (c *Client) UpdateGroup(ctx context.Context, g models.SelectedGroup) (*models.SelectedGroup, error) {
	var out models.SelectedGroup
	if err := c.do(ctx, http.MethodPut, "/groups/"+g.ID, g, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/groups/"+id, nil, nil)
}

func (c *Client) SendGroupMessage(ctx context.Context, deviceID, groupID, message string) error {
	return c.do(ctx, http.MethodPost, "/groups/"+deviceID+"/"+groupID+"/send",
		map[string]string{"message": message}, nil)
}

func (c *Client) GroupMessages(ctx context.Context, id string) ([]models.GroupMessage, error) {
	var out []models.GroupMessage
	if err := c.do(ctx, http.MethodGet, "/groups/"+id+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BroadcastToGroup(ctx context.Context, id, message string) error {
	return c.do(ctx, http.MethodPost, "/groups/"+id+"/broadcast",
		map[string]string{"message": message}, nil)
}
