package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// DeviceConsumer holds live state for one device on the host side.
type DeviceConsumer interface {
	Update(dev Device)
}

// ConsumerSet resolves the consumers the host layer already knows about.
type ConsumerSet interface {
	Lookup(sn string) (DeviceConsumer, bool)
}

type UpdateLoopParams struct {
	// Refresh updates the device source. It may be throttled and serve a cached outcome.
	Refresh func(ctx context.Context) error
	// Devices returns the live devices pushed to consumers after a successful refresh.
	Devices   func() map[string]Device
	Consumers ConsumerSet

	Interval time.Duration

	// OnUnknownDevice is called for refreshed devices no consumer is known for yet.
	OnUnknownDevice func(dev Device)

	Log zerolog.Logger
}

func (p *UpdateLoopParams) EnsureDefaults() {
	if p.Interval == 0 {
		p.Interval = MinTimeBetweenUpdates
	}
}

type UpdateLoop struct {
	params    UpdateLoopParams
	refreshCh chan struct{}

	log zerolog.Logger
}

func NewUpdateLoop(params UpdateLoopParams) (*UpdateLoop, error) {
	if params.Refresh == nil {
		return nil, fmt.Errorf("Refresh is nil")
	}
	if params.Devices == nil {
		return nil, fmt.Errorf("Devices is nil")
	}
	if params.Consumers == nil {
		return nil, fmt.Errorf("Consumers is nil")
	}
	params.EnsureDefaults()

	return &UpdateLoop{params: params, refreshCh: make(chan struct{}, 1), log: params.Log}, nil
}

// TriggerRefresh asks the loop to tick now. Extra triggers while one is pending are dropped.
func (u *UpdateLoop) TriggerRefresh() {
	select {
	case u.refreshCh <- struct{}{}:
	default:
	}
}

// Tick refreshes once and pushes fresh records to known consumers. A failed refresh
// leaves consumers untouched.
func (u *UpdateLoop) Tick(ctx context.Context) error {
	if err := u.params.Refresh(ctx); err != nil {
		u.log.Warn().Err(err).Msg("update skipped, refresh failed")
		return err
	}

	var wg conc.WaitGroup
	for sn, dev := range u.params.Devices() {
		consumer, ok := u.params.Consumers.Lookup(sn)
		if !ok {
			if u.params.OnUnknownDevice != nil {
				u.params.OnUnknownDevice(dev)
			}
			continue
		}

		dev := dev
		wg.Go(func() {
			consumer.Update(dev)
		})
	}
	wg.Wait()

	return nil
}

func (u *UpdateLoop) Run(ctx context.Context) error {
	u.log.Info().Dur("interval", u.params.Interval).Msg("update loop started")
	defer u.log.Info().Msg("update loop stopped")

	ticker := time.NewTicker(u.params.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-u.refreshCh:
		}
		_ = u.Tick(ctx)
	}
}
