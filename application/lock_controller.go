package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type OutcomeKind int

const (
	OutcomeOk OutcomeKind = iota
	OutcomeCallFailed
	OutcomeHTTPError
	OutcomeApplicationError
	OutcomeUnknownDevice
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOk:
		return "ok"
	case OutcomeCallFailed:
		return "call_failed"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeUnknownDevice:
		return "unknown_device"
	default:
		return "unknown"
	}
}

// Outcome is the result of one lock command.
type Outcome struct {
	Kind          OutcomeKind
	SerialNumber  string
	Open          bool
	CorrelationID string
	Status        LockStatus

	// StatusCode is set for OutcomeHTTPError.
	StatusCode int
	// Code and Message are set for OutcomeApplicationError.
	Code    int
	Message string

	Err error
}

func (o Outcome) Ok() bool {
	return o.Kind == OutcomeOk
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeOk:
		return fmt.Sprintf("operate lock succeeded (open=%t)", o.Open)
	case OutcomeCallFailed:
		return fmt.Sprintf("operate lock call failed: %v", o.Err)
	case OutcomeHTTPError:
		return fmt.Sprintf("operate lock failed (status %d)", o.StatusCode)
	case OutcomeApplicationError:
		return fmt.Sprintf("operate lock failed: %s (code %d)", o.Message, o.Code)
	case OutcomeUnknownDevice:
		return fmt.Sprintf("operate lock failed: unknown device %q", o.SerialNumber)
	default:
		return "operate lock: unknown outcome"
	}
}

type LockControllerParams struct {
	Registry     *Registry
	AirbnkClient AirbnkClient
	Credentials  CredentialsProvider
	MarkMapping  MarkMapping

	NewCorrelationID func() string

	// OnStatusChange, when set, receives the device after every status write.
	OnStatusChange func(dev Device)

	Log zerolog.Logger
}

func (p *LockControllerParams) EnsureDefaults() {
	if p.NewCorrelationID == nil {
		p.NewCorrelationID = uuid.NewString
	}
}

// LockController drives open/close commands and records their progress in the
// registry status field. Commands for the same serial number are serialized.
type LockController struct {
	params LockControllerParams

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	log zerolog.Logger
}

func NewLockController(params LockControllerParams) (*LockController, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("Registry is nil")
	}
	if params.AirbnkClient == nil {
		return nil, fmt.Errorf("AirbnkClient is nil")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("Credentials is nil")
	}
	if params.MarkMapping.Open == "" || params.MarkMapping.Close == "" || params.MarkMapping.Open == params.MarkMapping.Close {
		return nil, ErrInvalidMarkMapping
	}
	params.EnsureDefaults()

	return &LockController{params: params, locks: make(map[string]*sync.Mutex), log: params.Log}, nil
}

func (c *LockController) deviceLock(sn string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.locks[sn]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sn] = l
	}
	return l
}

func (c *LockController) setLockStatus(sn string, status LockStatus) {
	if !c.params.Registry.SetLockStatus(sn, status) || c.params.OnStatusChange == nil {
		return
	}
	if dev, ok := c.params.Registry.Get(sn); ok {
		c.params.OnStatusChange(dev)
	}
}

// Operate opens or closes one lock. It never returns an error: every failure is
// reported through the Outcome and the device status field.
func (c *LockController) Operate(ctx context.Context, sn string, open bool) Outcome {
	// a caller losing interest does not abort a command already sent to the lock
	ctx = context.WithoutCancel(ctx)
	outcome := Outcome{SerialNumber: sn, Open: open}

	dev, ok := c.params.Registry.Get(sn)
	if !ok || dev.Gateway == "" {
		c.log.Error().Str("sn", sn).Msg("operate lock on unknown device")
		outcome.Kind = OutcomeUnknownDevice
		outcome.Err = ErrUnknownDevice
		return outcome
	}

	l := c.deviceLock(sn)
	l.Lock()
	defer l.Unlock()

	// a refresh may have replaced the record while this command was queued
	if current, ok := c.params.Registry.Get(sn); ok && current.Gateway != "" {
		dev = current
	}

	inFlight := LockStatusClosing
	if open {
		inFlight = LockStatusOpening
	}
	c.setLockStatus(sn, inFlight)

	outcome.CorrelationID = c.params.NewCorrelationID()
	log := c.log.With().
		Str("sn", sn).
		Str("gateway", dev.Gateway).
		Bool("open", open).
		Str("uuid", outcome.CorrelationID).
		Logger()

	creds, err := c.params.Credentials.Credentials(ctx)
	if err == nil {
		err = c.params.AirbnkClient.OperateLock(ctx, creds, LockCommand{
			GatewaySerialNumber: dev.Gateway,
			SerialNumber:        sn,
			Mark:                c.params.MarkMapping.Mark(open),
			CorrelationID:       outcome.CorrelationID,
		})
	}

	outcome = classifyOutcome(outcome, err)
	c.setLockStatus(sn, outcome.Status)

	if outcome.Ok() {
		log.Info().Str("lock_status", string(outcome.Status)).Msg(outcome.String())
	} else {
		log.Error().Err(err).Str("lock_status", string(outcome.Status)).Msg(outcome.String())
	}
	return outcome
}

func classifyOutcome(outcome Outcome, err error) Outcome {
	var (
		httpErr *HTTPError
		appErr  *ApplicationError
	)

	switch {
	case err == nil:
		outcome.Kind = OutcomeOk
		outcome.Status = LockStatusClosed
		if outcome.Open {
			outcome.Status = LockStatusOpen
		}
	case errors.As(err, &httpErr):
		outcome.Kind = OutcomeHTTPError
		outcome.StatusCode = httpErr.StatusCode
		outcome.Status = LockStatusFailedCode(httpErr.StatusCode)
		outcome.Err = err
	case errors.As(err, &appErr):
		outcome.Kind = OutcomeApplicationError
		outcome.Code = appErr.Code
		outcome.Message = appErr.Message
		outcome.Status = LockStatusTimedOut
		outcome.Err = err
	default:
		// transport failures and anything else that produced no response
		outcome.Kind = OutcomeCallFailed
		outcome.Status = LockStatusFailed
		outcome.Err = err
	}
	return outcome
}
