package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"whatsapp-console/internal/bot"
	"whatsapp-console/internal/models"
)

func (c *Client) ListBotResponses(ctx context.Context, deviceID string) ([]bot.BotResponse, error) {
	var out []bot.BotResponse
	if err := c.do(ctx, http.MethodGet, "/bot/devices/"+deviceID+"/responses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBotResponse(ctx context.Context, r bot.BotResponse) (*bot.BotResponse, error) {
	var out bot.BotResponse
	if err := c.do(ctx, http.MethodPost, "/bot/responses", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBotResponse replaces the rule wholesale; the platform has no
// partial-patch endpoint for rules.
func (c *Client) UpdateBotResponse(ctx context.Context, r bot.BotResponse) (*bot.BotResponse, error) {
	var out bot.BotResponse
	if err := c.do(ctx, http.MethodPut, "/bot/responses/"+r.ID, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBotResponse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bot/responses/"+id, nil, nil)
}

func (c *Client) BotTemplates(ctx context.Context) ([]models.BotTemplate, error) {
	var out []models.BotTemplate
	if err := c.do(ctx, http.MethodGet, "/bot/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BotTestResult is the dry-run outcome: the rendered reply plus, for
// multi-step rules, the conversation session state the engine would
// carry forward.
type BotTestResult struct {
	Matched           bool            `json:"matched"`
	ProcessedResponse string          `json:"processedResponse"`
	Session           json.RawMessage `json:"session,omitempty"`
}

func (c *Client) TestBotResponse(ctx context.Context, deviceID, message string, session json.RawMessage) (*BotTestResult, error) {
	req := map[string]interface{}{"message": message}
	if len(session) > 0 {
		req["session"] = session
	}
	var out BotTestResult
	if err := c.do(ctx, http.MethodPost, "/bot/devices/"+deviceID+"/test", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
