package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/poll"
	"whatsapp-console/internal/store"
	"whatsapp-console/internal/upstream"
)

// countdownTick is how often the QR countdown decrements.
const countdownTick = time.Second

// DeviceHandler backs the device list page: CRUD plus the pairing
// machinery (status polling and per-device QR countdowns).
type DeviceHandler struct {
	Store  *store.Store
	Client *upstream.Client
	Config *config.Config
	Log    *zap.Logger

	mu         sync.Mutex
	watchers   map[string]*poll.Handle
	countdowns map[string]*poll.Countdown
}

func NewDeviceHandler(st *store.Store, client *upstream.Client, cfg *config.Config, log *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		Store:      st,
		Client:     client,
		Config:     cfg,
		Log:        log,
		watchers:   make(map[string]*poll.Handle),
		countdowns: make(map[string]*poll.Countdown),
	}
}

func (h *DeviceHandler) List(c *gin.Context) {
	if err := h.Store.Devices.Fetch(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Devices.Snapshot())
}

// Add creates a device and immediately starts pairing: a status watcher
// that feeds QR payloads into the store and a QR countdown for the new
// card.
func (h *DeviceHandler) Add(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.Store.Devices.Add(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	h.startPairing(device.ID)
	c.JSON(http.StatusCreated, device)
}

func (h *DeviceHandler) startPairing(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.watchers[deviceID]; ok {
		old.Stop()
	}
	h.watchers[deviceID] = poll.WatchDevice(context.Background(), h.Client, deviceID,
		h.Config.DeviceStatusInterval, func(status models.DeviceStatus) {
			h.Store.Devices.ApplyStatus(deviceID, status)
		})

	if old, ok := h.countdowns[deviceID]; ok {
		old.Stop()
	}
	h.countdowns[deviceID] = poll.NewCountdown(context.Background(),
		h.Config.QRCountdown, countdownTick,
		func() {
			h.Log.Info("qr expired", zap.String("device", deviceID))
		},
		func() {
			// retry re-fetches status once so a fresh QR lands without
			// waiting for the next poll tick
			if status, err := h.Client.DeviceStatus(context.Background(), deviceID); err == nil {
				h.Store.Devices.ApplyStatus(deviceID, *status)
			}
		})
}

// Status returns the cached device merged with its countdown state.
func (h *DeviceHandler) Status(c *gin.Context) {
	deviceID := c.Param("id")
	device, ok := h.Store.Devices.Device(deviceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	resp := gin.H{"device": device}
	h.mu.Lock()
	if cd, ok := h.countdowns[deviceID]; ok {
		resp["qrExpired"] = cd.Expired()
		resp["qrSecondsLeft"] = cd.Remaining()
		resp["qrAction"] = cd.ActionLabel()
	}
	h.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

// RetryQR resets the expired countdown and re-requests a fresh code.
func (h *DeviceHandler) RetryQR(c *gin.Context) {
	deviceID := c.Param("id")
	h.mu.Lock()
	cd, ok := h.countdowns[deviceID]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pairing in progress for this device"})
		return
	}
	cd.Retry()
	c.JSON(http.StatusOK, gin.H{"status": "QR refresh requested"})
}

// Remove deletes a device. Destructive, so the UI must send the
// confirmation flag produced by its confirm dialog.
func (h *DeviceHandler) Remove(c *gin.Context) {
	if !confirmed(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required to remove a device"})
		return
	}
	deviceID := c.Param("id")

	if err := h.Store.Devices.Remove(c.Request.Context(), deviceID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	h.stopPairing(deviceID)
	c.JSON(http.StatusOK, gin.H{"status": "Device removed"})
}

func (h *DeviceHandler) stopPairing(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.watchers[deviceID]; ok {
		w.Stop()
		delete(h.watchers, deviceID)
	}
	if cd, ok := h.countdowns[deviceID]; ok {
		cd.Stop()
		delete(h.countdowns, deviceID)
	}
}

// Shutdown stops every pairing loop; called when the server exits.
func (h *DeviceHandler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, w := range h.watchers {
		w.Stop()
		delete(h.watchers, id)
	}
	for id, cd := range h.countdowns {
		cd.Stop()
		delete(h.countdowns, id)
	}
}

func confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}
