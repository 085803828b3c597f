package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

const DefaultReportInterval = 30 * time.Second

// LockService is what outer surfaces (MQTT commands, HTTP API) operate on.
type LockService interface {
	Devices() []Device
	Device(sn string) (Device, bool)
	Operate(ctx context.Context, sn string, open bool) Outcome
	Refresh(ctx context.Context) ([]Device, error)
}

type AirbnkToMQTTService interface {
	LockService
	Run(ctx context.Context) error
}

type AirbnkToMQTTServiceParams struct {
	AirbnkClient AirbnkClient
	Credentials  CredentialsProvider
	MQTTClient   MQTTClient

	MarkMapping          MarkMapping
	ExcludedTypePrefixes []string
	TopicPrefix          string

	UpdateInterval time.Duration
	ReportInterval time.Duration

	Now              func() time.Time
	NewCorrelationID func() string

	Log zerolog.Logger
}

func (p *AirbnkToMQTTServiceParams) EnsureDefaults() {
	if p.TopicPrefix == "" {
		p.TopicPrefix = DefaultTopicPrefix
	}
	if p.UpdateInterval == 0 {
		p.UpdateInterval = MinTimeBetweenUpdates
	}
	if p.ReportInterval == 0 {
		p.ReportInterval = DefaultReportInterval
	}
	if p.Now == nil {
		p.Now = time.Now
	}
}

type airbnkToMQTTService struct {
	params AirbnkToMQTTServiceParams

	registry   *Registry
	throttle   *Throttle[map[string]Device]
	controller *LockController
	entities   *LockEntities
	updateLoop *UpdateLoop
	topics     Topics

	commands conc.WaitGroup

	log zerolog.Logger
}

func NewAirbnkToMQTTService(params AirbnkToMQTTServiceParams) (AirbnkToMQTTService, error) {
	if params.AirbnkClient == nil {
		return nil, fmt.Errorf("AirbnkClient is nil")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("Credentials is nil")
	}
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	params.EnsureDefaults()

	s := &airbnkToMQTTService{
		params: params,
		topics: Topics{Prefix: params.TopicPrefix},
		log:    params.Log,
	}

	var err error
	s.registry, err = NewRegistry(RegistryParams{
		AirbnkClient:         params.AirbnkClient,
		Credentials:          params.Credentials,
		ExcludedTypePrefixes: params.ExcludedTypePrefixes,
		Log:                  params.Log.With().Str("module", "registry").Logger(),
	})
	if err != nil {
		return nil, err
	}

	s.throttle = NewThrottle(MinTimeBetweenUpdates, s.registry.Refresh, params.Now)
	s.entities = NewLockEntities(params.MQTTClient, s.topics, params.Log.With().Str("module", "lock-entities").Logger())

	s.controller, err = NewLockController(LockControllerParams{
		Registry:         s.registry,
		AirbnkClient:     params.AirbnkClient,
		Credentials:      params.Credentials,
		MarkMapping:      params.MarkMapping,
		NewCorrelationID: params.NewCorrelationID,
		OnStatusChange:   s.onStatusChange,
		Log:              params.Log.With().Str("module", "lock-controller").Logger(),
	})
	if err != nil {
		return nil, err
	}

	s.updateLoop, err = NewUpdateLoop(UpdateLoopParams{
		Refresh:   s.refreshRegistry,
		Devices:   s.registry.Snapshot,
		Consumers: s.entities,
		Interval:  params.UpdateInterval,
		OnUnknownDevice: func(dev Device) {
			s.entities.Register(dev)
		},
		Log: params.Log.With().Str("module", "update-loop").Logger(),
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// refreshRegistry runs the throttled registry refresh. The cached listing is not
// used, statuses only live in the registry.
func (s *airbnkToMQTTService) refreshRegistry(ctx context.Context) error {
	_, err := s.throttle.Do(ctx)
	return err
}

func (s *airbnkToMQTTService) onStatusChange(dev Device) {
	if e, ok := s.entities.Entity(dev.SerialNumber); ok {
		e.Update(dev)
	}
}

func (s *airbnkToMQTTService) Devices() []Device {
	snapshot := s.registry.Snapshot()
	devices := make([]Device, 0, len(snapshot))
	for _, dev := range snapshot {
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].SerialNumber < devices[j].SerialNumber
	})
	return devices
}

func (s *airbnkToMQTTService) Device(sn string) (Device, bool) {
	return s.registry.Get(sn)
}

func (s *airbnkToMQTTService) Operate(ctx context.Context, sn string, open bool) Outcome {
	outcome := s.controller.Operate(ctx, sn, open)
	if outcome.Kind != OutcomeUnknownDevice {
		s.entities.PublishOutcome(outcome)
	}
	return outcome
}

// Refresh runs one throttled update and returns the resulting devices.
func (s *airbnkToMQTTService) Refresh(ctx context.Context) ([]Device, error) {
	if err := s.updateLoop.Tick(ctx); err != nil {
		return nil, err
	}
	return s.Devices(), nil
}

func (s *airbnkToMQTTService) handleCommand(ctx context.Context, msg MQTTMessage) {
	sn, ok := s.topics.CommandSerialNumber(msg.Topic())
	if !ok {
		s.log.Warn().Str("topic", msg.Topic()).Msg("ignoring command on unexpected topic")
		return
	}

	open, err := ParseCommand(msg.Payload())
	if err != nil {
		s.log.Warn().Err(err).Str("sn", sn).Msg("ignoring command")
		return
	}

	// paho delivers messages from a single goroutine, commands must not block it
	s.commands.Go(func() {
		s.Operate(ctx, sn, open)
	})
}

func (s *airbnkToMQTTService) Run(ctx context.Context) error {
	if err := s.params.MQTTClient.Connect(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	if err := s.refreshRegistry(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial device refresh failed, retrying in update loop")
	}
	for _, dev := range s.registry.Snapshot() {
		s.entities.Register(dev)
	}
	s.log.Info().Int("devices", s.entities.Len()).Msg("lock entities ready")

	err := s.params.MQTTClient.Subscribe(s.topics.CommandFilter(), 1, func(msg MQTTMessage) {
		s.handleCommand(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("mqtt subscribe: %w", err)
	}
	defer s.commands.Wait()

	g := errgroup.Group{}

	g.Go(func() error {
		return s.updateLoop.Run(ctx)
	})

	// mqtt publish reporter
	g.Go(func() error {
		ticker := time.NewTicker(s.params.ReportInterval)
		defer ticker.Stop()
		lastStatus := s.params.MQTTClient.Status()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				newStatus := s.params.MQTTClient.Status()
				msgPerMin := float64(newStatus.MessageCount-lastStatus.MessageCount) / s.params.ReportInterval.Minutes()

				s.log.Info().
					Float64("msg_per_min", msgPerMin).
					Bool("is_connected", newStatus.Connected).
					Time("last_time_published", newStatus.LastTimePublished).
					Int("devices", s.entities.Len()).
					Msg("publish report")
				lastStatus = newStatus
			}
		}
	})

	return g.Wait()
}

var _ LockService = &airbnkToMQTTService{}
