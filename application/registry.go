package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var DefaultExcludedTypePrefixes = []string{"W", "F"}

type RegistryParams struct {
	AirbnkClient AirbnkClient
	Credentials  CredentialsProvider

	// ExcludedTypePrefixes lists device type prefixes that are never registered
	// (gateways and accessories). Nil means DefaultExcludedTypePrefixes.
	ExcludedTypePrefixes []string

	Log zerolog.Logger
}

func (p *RegistryParams) EnsureDefaults() {
	if p.ExcludedTypePrefixes == nil {
		p.ExcludedTypePrefixes = DefaultExcludedTypePrefixes
	}
}

// Registry is the in-memory set of usable lock devices keyed by serial number.
// All access goes through mu; refresh performs the network call without holding it.
type Registry struct {
	params RegistryParams

	mu       sync.RWMutex
	devices  map[string]*Device
	revision uint64

	log zerolog.Logger
}

func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.AirbnkClient == nil {
		return nil, fmt.Errorf("AirbnkClient is nil")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("Credentials is nil")
	}
	params.EnsureDefaults()

	return &Registry{
		params:  params,
		devices: make(map[string]*Device),
		log:     params.Log,
	}, nil
}

// Refresh lists devices from the cloud and inserts or replaces every device that passes
// the filter. Devices missing from the listing are kept. On error nothing is changed.
func (r *Registry) Refresh(ctx context.Context) (map[string]Device, error) {
	// the result is shared by throttled callers, one of them cancelling must not poison it
	ctx = context.WithoutCancel(ctx)

	creds, err := r.params.Credentials.Credentials(ctx)
	if err != nil {
		return nil, err
	}

	listed, err := r.params.AirbnkClient.ListDevices(ctx, creds)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", creds.UserID).Msg("device listing failed")
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dev := range listed {
		if reason, ok := r.excluded(dev); ok {
			r.log.Info().
				Str("sn", dev.SerialNumber).
				Str("device_name", dev.Name).
				Str("device_type", dev.DeviceType).
				Msgf("device filtered out: %s", reason)
			continue
		}

		dev := dev
		dev.LockStatus = LockStatusIdle
		dev.Revision = 0
		if existing, ok := r.devices[dev.SerialNumber]; ok {
			dev.LockStatus = existing.LockStatus
			dev.Revision = existing.Revision
			if dev == *existing {
				continue
			}
		}
		dev.Revision = r.nextRevisionLocked()
		r.devices[dev.SerialNumber] = &dev
	}

	r.log.Debug().Int("listed", len(listed)).Int("registered", len(r.devices)).Msg("registry refreshed")
	return r.snapshotLocked(), nil
}

func (r *Registry) excluded(dev Device) (string, bool) {
	if dev.SerialNumber == "" {
		return "no serial number", true
	}
	if dev.Gateway == "" {
		return "no gateway", true
	}
	for _, prefix := range r.params.ExcludedTypePrefixes {
		if prefix != "" && strings.HasPrefix(dev.DeviceType, prefix) {
			return "excluded type " + prefix, true
		}
	}
	return "", false
}

func (r *Registry) Get(sn string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[sn]
	if !ok {
		return Device{}, false
	}
	return *dev, true
}

func (r *Registry) Snapshot() map[string]Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() map[string]Device {
	snapshot := make(map[string]Device, len(r.devices))
	for sn, dev := range r.devices {
		snapshot[sn] = *dev
	}
	return snapshot
}

// SetLockStatus updates the status field of a registered device and reports whether it exists.
func (r *Registry) SetLockStatus(sn string, status LockStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[sn]
	if !ok {
		return false
	}
	dev.LockStatus = status
	dev.Revision = r.nextRevisionLocked()
	return true
}

func (r *Registry) nextRevisionLocked() uint64 {
	r.revision++
	return r.revision
}
