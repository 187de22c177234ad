package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"whatsapp-console/internal/store"
)

// DashboardHandler renders the landing page's summary: device and
// group counts, recent messages, and the account's plan, joined from
// the already-cached slices plus one refresh round.
type DashboardHandler struct {
	Store *store.Store
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	// refresh what the summary reads; a failing slice degrades to its
	// last cached snapshot instead of blanking the page
	_ = h.Store.Devices.Fetch(ctx)
	_ = h.Store.Groups.Fetch(ctx)

	devices := h.Store.Devices.Snapshot()
	groups := h.Store.Groups.Snapshot()
	messages := h.Store.Messages.Snapshot()
	auth := h.Store.Auth.Snapshot()

	connected := 0
	for _, d := range devices.Devices {
		if d.Status == "connected" || (d.Status == "" && d.IsActive) {
			connected++
		}
	}
	monitored := 0
	for _, g := range groups.Selected {
		if g.IsActive {
			monitored++
		}
	}

	recent := messages.Messages
	if len(recent) > 10 {
		recent = recent[:10]
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": gin.H{
			"total":     len(devices.Devices),
			"connected": connected,
		},
		"groups": gin.H{
			"total":     len(groups.Selected),
			"monitored": monitored,
		},
		"recentMessages": recent,
		"subscription":   auth.Subscription,
	})
}
