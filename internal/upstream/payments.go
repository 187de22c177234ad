package upstream

import (
	"context"
	"net/http"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/payment"
)

// PublicPlans is the catalog shown before login; no token required.
func (c *Client) PublicPlans(ctx context.Context) ([]models.PaymentPlan, error) {
	var out []models.PaymentPlan
	if err := c.doPublic(ctx, http.MethodGet, "/subscription-plans/public", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterPayment starts a purchase: the platform creates a pending
// payment and returns the gateway form descriptor for the browser to
// auto-submit in a new tab.
func (c *Client) RegisterPayment(ctx context.Context, planID string) (*payment.Registration, error) {
	var out payment.Registration
	err := c.do(ctx, http.MethodPost, "/subscriptions",
		map[string]string{"planId": planID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentStatus(ctx context.Context, paymentID string) (payment.Status, error) {
	var out struct {
		Status payment.Status `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/status/"+paymentID, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// CompleteSubscription finalizes the plan after the gateway reports
// COMPLETED and returns the displayable receipt.
func (c *Client) CompleteSubscription(ctx context.Context, paymentID string) (*payment.Receipt, error) {
	var out payment.Receipt
	err := c.do(ctx, http.MethodPost, "/subscriptions/complete",
		map[string]string{"paymentId": paymentID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
