package store

import (
	"context"

	"whatsapp-console/internal/models"
	"whatsapp-console/internal/upstream"
)

type DevicesSlice struct {
	slice
	client *upstream.Client

	devices []models.Device
}

type DevicesSnapshot struct {
	Flags
	Devices []models.Device `json:"devices"`
}

func (s *DevicesSlice) Snapshot() DevicesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DevicesSnapshot{
		Flags:   Flags{Loading: s.loading, Error: s.err},
		Devices: append([]models.Device(nil), s.devices...),
	}
}

func (s *DevicesSlice) Fetch(ctx context.Context) error {
	id := s.begin()
	devices, err := s.client.ListDevices(ctx)
	if err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() { s.devices = devices }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

func (s *DevicesSlice) Add(ctx context.Context, name string) (*models.Device, error) {
	id := s.begin()
	device, err := s.client.AddDevice(ctx, name)
	if err != nil {
		s.reject(id, err)
		return nil, err
	}
	if s.fulfill(id, func() { s.devices = append(s.devices, *device) }) {
		s.publish("fulfilled", s.Snapshot())
	}
	return device, nil
}

func (s *DevicesSlice) Remove(ctx context.Context, deviceID string) error {
	id := s.begin()
	if err := s.client.RemoveDevice(ctx, deviceID); err != nil {
		s.reject(id, err)
		return err
	}
	if s.fulfill(id, func() {
		kept := s.devices[:0]
		for _, d := range s.devices {
			if d.ID != deviceID {
				kept = append(kept, d)
			}
		}
		s.devices = kept
	}) {
		s.publish("fulfilled", s.Snapshot())
	}
	return nil
}

// ApplyStatus merges a status-poll payload into the cached device.
// Status updates bypass request sequencing: ticks are idempotent merges
// of transient fields, not list replacements.
func (s *DevicesSlice) ApplyStatus(deviceID string, status models.DeviceStatus) {
	s.mu.Lock()
	for i := range s.devices {
		if s.devices[i].ID == deviceID {
			if status.QR != "" {
				s.devices[i].QR = status.QR
			}
			if status.QRDataURL != "" {
				s.devices[i].QRDataURL = status.QRDataURL
			}
			if status.Status != "" {
				s.devices[i].Status = status.Status
			}
			break
		}
	}
	s.mu.Unlock()
	s.publish("status", map[string]interface{}{"deviceId": deviceID, "status": status})
}

func (s *DevicesSlice) Device(deviceID string) (models.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.ID == deviceID {
			return d, true
		}
	}
	return models.Device{}, false
}
