package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/localstore"
	"whatsapp-console/internal/payment"
	"whatsapp-console/internal/poll"
	"whatsapp-console/internal/store"
	"whatsapp-console/internal/upstream"
)

// upstreamCallTimeout caps finalization calls that run outside any
// request context.
const upstreamCallTimeout = 15 * time.Second

// PlanHandler drives plan purchases end to end: registration, the
// gateway form handoff, bounded status polling, and finalization.
// At most one purchase is in flight per install; its marker is
// persisted so polling survives a restart.
type PlanHandler struct {
	Store  *store.Store
	Client *upstream.Client
	Local  *localstore.Store
	Config *config.Config
	Log    *zap.Logger

	mu      sync.Mutex
	watcher *poll.Handle
}

func (h *PlanHandler) Plans(c *gin.Context) {
	if err := h.Store.Payment.FetchPlans(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Store.Payment.Snapshot())
}

// Subscribe registers a payment for the chosen plan and answers with
// the gateway redirect descriptor. The browser submits the descriptor
// in a new tab; meanwhile the server starts polling the payment.
func (h *PlanHandler) Subscribe(c *gin.Context) {
	var req struct {
		PlanID string `json:"planId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reg, err := h.Store.Payment.Register(c.Request.Context(), req.PlanID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.Local.SavePendingPayment(reg.PaymentID, reg.PlanID); err != nil {
		h.Log.Warn("persisting pending payment failed",
			zap.String("paymentId", reg.PaymentID), zap.Error(err))
	}

	if err := h.Store.Payment.BeginProcessing(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.startWatch(reg.PaymentID)

	c.JSON(http.StatusCreated, gin.H{
		"paymentId": reg.PaymentID,
		"redirect":  reg.Redirect,
	})
}

func (h *PlanHandler) Payment(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Payment.Snapshot())
}

// Reset returns a settled flow to idle so a new purchase can start.
func (h *PlanHandler) Reset(c *gin.Context) {
	if !h.Store.Payment.FlowState().Terminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "A purchase is still in progress"})
		return
	}
	h.Store.Payment.Reset()
	c.JSON(http.StatusOK, h.Store.Payment.Snapshot())
}

func (h *PlanHandler) Receipts(c *gin.Context) {
	receipts, err := h.Local.Receipts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts})
}

// ResumePending restores polling for a purchase interrupted by a
// restart. Called once at startup; the marker guarantees resumption
// happens at most once because it is cleared on any outcome.
func (h *PlanHandler) ResumePending(ctx context.Context) {
	marker, err := h.Local.LoadPendingPayment()
	if err != nil {
		h.Log.Warn("loading pending payment marker failed", zap.Error(err))
		return
	}
	if marker == nil {
		return
	}

	status, err := h.Client.PaymentStatus(ctx, marker.PaymentID)
	if err != nil {
		// leave the marker in place; the next start tries again
		h.Log.Warn("checking pending payment failed",
			zap.String("paymentId", marker.PaymentID), zap.Error(err))
		return
	}

	switch {
	case status.Terminal():
		// settled while we were down: finalize without polling
		if err := h.Store.Payment.Resume(marker.PaymentID, marker.PlanID); err != nil {
			h.Log.Warn("resuming payment flow failed", zap.Error(err))
		}
		h.settle(status, marker.PaymentID)
	case status == payment.StatusPending:
		if err := h.Store.Payment.Resume(marker.PaymentID, marker.PlanID); err != nil {
			h.Log.Warn("resuming payment flow failed", zap.Error(err))
			return
		}
		h.Log.Info("resuming payment poll", zap.String("paymentId", marker.PaymentID))
		h.startWatch(marker.PaymentID)
	default:
		// unknown status, drop the stale marker
		h.clearMarker(marker.PaymentID)
	}
}

// Shutdown stops the active payment watcher, if any.
func (h *PlanHandler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watcher != nil {
		h.watcher.Stop()
		h.watcher = nil
	}
}

func (h *PlanHandler) startWatch(paymentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.watcher != nil {
		h.watcher.Stop()
	}
	check := func(ctx context.Context) (payment.Status, error) {
		return h.Client.PaymentStatus(ctx, paymentID)
	}
	h.watcher = poll.WatchPayment(context.Background(),
		h.Config.PaymentStatusInterval, h.Config.PaymentTimeout,
		check, &paymentSink{handler: h, paymentID: paymentID})
}

// settle applies a terminal gateway status: COMPLETED finalizes the
// subscription and caches the receipt, FAILED and CANCELLED surface
// the outcome. Either way the pending marker is cleared.
func (h *PlanHandler) settle(status payment.Status, paymentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), upstreamCallTimeout)
	defer cancel()

	switch status {
	case payment.StatusCompleted:
		receipt, err := h.Client.CompleteSubscription(ctx, paymentID)
		if err != nil {
			h.Log.Error("completing subscription failed",
				zap.String("paymentId", paymentID), zap.Error(err))
			h.clearMarker(paymentID)
			h.Store.Payment.Fail(payment.FlowFailed, "Payment settled but activating the plan failed: "+err.Error())
			return
		}
		if err := h.Local.SaveReceipt(localstore.ReceiptRecord{
			PaymentID: receipt.PaymentID,
			PlanID:    receipt.PlanID,
			PlanName:  receipt.PlanName,
			Amount:    receipt.Amount,
			Currency:  receipt.Currency,
			PaidAt:    receipt.PaidAt,
		}); err != nil {
			h.Log.Warn("caching receipt failed", zap.Error(err))
		}
		h.clearMarker(paymentID)
		h.Store.Payment.Complete(receipt)
	case payment.StatusFailed:
		h.clearMarker(paymentID)
		h.Store.Payment.Fail(payment.FlowFailed, "The payment was declined by the gateway")
	case payment.StatusCancelled:
		h.clearMarker(paymentID)
		h.Store.Payment.Fail(payment.FlowCancelled, "The payment was cancelled")
	}
}

func (h *PlanHandler) clearMarker(paymentID string) {
	if err := h.Local.ClearPendingPayment(paymentID); err != nil {
		h.Log.Warn("clearing pending payment marker failed",
			zap.String("paymentId", paymentID), zap.Error(err))
	}
}

// paymentSink routes poll outcomes back into the handler.
type paymentSink struct {
	handler   *PlanHandler
	paymentID string
}

func (s *paymentSink) OnTerminal(status payment.Status) {
	s.handler.settle(status, s.paymentID)
}

func (s *paymentSink) OnTimeout() {
	s.handler.clearMarker(s.paymentID)
	s.handler.Store.Payment.Fail(payment.FlowFailed,
		"Gave up waiting for the gateway; check your bank before retrying")
	s.handler.Log.Warn("payment poll timed out", zap.String("paymentId", s.paymentID))
}
