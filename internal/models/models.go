// Package models holds the console's view of platform-owned entities.
// The platform API is the source of truth; everything here is a cache
// refreshed on demand or by polling.
package models

import "time"

// Device is a WhatsApp account connection managed by the platform,
// identified by its paired phone number. QR fields and status are
// transient: they arrive from status polling during pairing and are not
// part of the device's persisted identity.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	WaNumber  string    `json:"waNumber"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`

	QR        string `json:"qr,omitempty"`
	QRDataURL string `json:"qrDataUrl,omitempty"`
	QRCodeURL string `json:"qrCodeUrl,omitempty"`
	Status    string `json:"status,omitempty"`
}

// DeviceStatus is the payload of a status poll tick.
type DeviceStatus struct {
	QR        string `json:"qr,omitempty"`
	QRDataURL string `json:"qrDataUrl,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Message is one sent message as echoed back by the platform.
type Message struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AvailableGroup is a group the device participates in but the user has
// not selected for monitoring yet.
type AvailableGroup struct {
	ID           string `json:"id"`
	DeviceID     string `json:"deviceId"`
	Name         string `json:"name"`
	Participants int    `json:"participants"`
}

// SelectedGroup is a monitored group. The toggles are mutated through
// an explicit PUT of the whole record.
type SelectedGroup struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	GroupID   string    `json:"groupId"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	AutoReply bool      `json:"autoReply"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupMessage is one message observed in a monitored group.
type GroupMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentPlan is a catalog entry from the public plan list.
type PaymentPlan struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DurationDays int     `json:"durationDays"`
	DeviceLimit  int     `json:"deviceLimit"`
	MessageLimit int     `json:"messageLimit"`
}

// Subscription describes the account's current plan as returned by the
// auth endpoints.
type Subscription struct {
	PlanID    string    `json:"planId"`
	PlanName  string    `json:"planName"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// User is the authenticated account profile.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// BotTemplate is a prebuilt rule offered by the template gallery;
// applying one seeds the wizard draft.
type BotTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Definition  string `json:"definition"` // JSON-encoded BotResponse seed
}
