package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const DefaultTopicPrefix = "airbnk"

// Topics builds the MQTT topics of lock entities.
//
//	<prefix>/<sn>/state   retained device state
//	<prefix>/<sn>/set     OPEN or CLOSE command
//	<prefix>/<sn>/result  outcome of the last command
type Topics struct {
	Prefix string
}

func (t Topics) State(sn string) string {
	return fmt.Sprintf("%s/%s/state", t.Prefix, sn)
}

func (t Topics) Command(sn string) string {
	return fmt.Sprintf("%s/%s/set", t.Prefix, sn)
}

func (t Topics) CommandFilter() string {
	return t.Prefix + "/+/set"
}

func (t Topics) Result(sn string) string {
	return fmt.Sprintf("%s/%s/result", t.Prefix, sn)
}

// CommandSerialNumber extracts the serial number from a command topic.
func (t Topics) CommandSerialNumber(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	sn, ok := strings.CutSuffix(rest, "/set")
	if !ok || sn == "" || strings.Contains(sn, "/") {
		return "", false
	}
	return sn, true
}

// ParseCommand maps a command payload to open (true) or close (false).
func ParseCommand(payload []byte) (open bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case "OPEN", "UNLOCK":
		return true, nil
	case "CLOSE", "LOCK":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported command %q", payload)
	}
}

// OutcomeReport is the wire form of an Outcome.
type OutcomeReport struct {
	SerialNumber  string     `json:"sn"`
	Open          bool       `json:"open"`
	Outcome       string     `json:"outcome"`
	LockStatus    LockStatus `json:"lockStatus,omitempty"`
	Message       string     `json:"message"`
	CorrelationID string     `json:"uuid,omitempty"`
	StatusCode    int        `json:"statusCode,omitempty"`
	Code          int        `json:"code,omitempty"`
}

func NewOutcomeReport(o Outcome) OutcomeReport {
	return OutcomeReport{
		SerialNumber:  o.SerialNumber,
		Open:          o.Open,
		Outcome:       o.Kind.String(),
		LockStatus:    o.Status,
		Message:       o.String(),
		CorrelationID: o.CorrelationID,
		StatusCode:    o.StatusCode,
		Code:          o.Code,
	}
}

// LockEntity is the host-side view of one lock, mirrored to MQTT.
type LockEntity struct {
	mu     sync.RWMutex
	device Device

	entities *LockEntities
}

func (e *LockEntity) Device() Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

// Update stores dev and publishes it as retained state. Records older than the
// current one are dropped so the retained topic never goes back in time.
func (e *LockEntity) Update(dev Device) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dev.Revision < e.device.Revision {
		e.entities.log.Debug().
			Str("sn", dev.SerialNumber).
			Uint64("revision", dev.Revision).
			Uint64("current_revision", e.device.Revision).
			Msg("stale device update dropped")
		return
	}
	e.device = dev

	e.entities.publish(e.entities.topics.State(dev.SerialNumber), true, dev)
}

type LockEntities struct {
	mqtt   MQTTClient
	topics Topics

	mu       sync.RWMutex
	entities map[string]*LockEntity

	log zerolog.Logger
}

func NewLockEntities(mqtt MQTTClient, topics Topics, log zerolog.Logger) *LockEntities {
	return &LockEntities{
		mqtt:     mqtt,
		topics:   topics,
		entities: make(map[string]*LockEntity),
		log:      log,
	}
}

func (l *LockEntities) Lookup(sn string) (DeviceConsumer, bool) {
	e, ok := l.Entity(sn)
	if !ok {
		return nil, false
	}
	return e, true
}

func (l *LockEntities) Entity(sn string) (*LockEntity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entities[sn]
	return e, ok
}

// Register adds an entity for dev, or returns the existing one, and publishes its state.
func (l *LockEntities) Register(dev Device) *LockEntity {
	l.mu.Lock()
	e, ok := l.entities[dev.SerialNumber]
	if !ok {
		e = &LockEntity{entities: l}
		l.entities[dev.SerialNumber] = e
		l.log.Info().Str("sn", dev.SerialNumber).Str("device_name", dev.Name).Msg("lock entity registered")
	}
	l.mu.Unlock()

	e.Update(dev)
	return e
}

func (l *LockEntities) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entities)
}

func (l *LockEntities) PublishOutcome(o Outcome) {
	l.publish(l.topics.Result(o.SerialNumber), false, NewOutcomeReport(o))
}

func (l *LockEntities) publish(topic string, retained bool, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.Error().Err(err).Str("topic", topic).Msg("failed to encode mqtt payload")
		return
	}
	if err := l.mqtt.Publish(topic, 0, retained, data); err != nil {
		l.log.Warn().Err(err).Str("topic", topic).Msg("mqtt publish failed")
	}
}

var _ ConsumerSet = &LockEntities{}
var _ DeviceConsumer = &LockEntity{}
