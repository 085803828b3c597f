package application

import (
	"context"
	"fmt"
)

// LockMark is the vendor "mark" value sent with a lock command.
type LockMark string

// MarkMapping selects which mark value opens and which closes a lock. Firmware in the
// field has been seen to disagree, so the mapping is configured rather than assumed.
type MarkMapping struct {
	Name  string
	Open  LockMark
	Close LockMark
}

var (
	MarkMappingOpen1Close2 = MarkMapping{Name: "open1-close2", Open: "1", Close: "2"}
	MarkMappingOpen2Close1 = MarkMapping{Name: "open2-close1", Open: "2", Close: "1"}
)

func ParseMarkMapping(name string) (MarkMapping, error) {
	switch name {
	case MarkMappingOpen1Close2.Name:
		return MarkMappingOpen1Close2, nil
	case MarkMappingOpen2Close1.Name:
		return MarkMappingOpen2Close1, nil
	default:
		return MarkMapping{}, fmt.Errorf("%w: %q", ErrInvalidMarkMapping, name)
	}
}

func (m MarkMapping) Mark(open bool) LockMark {
	if open {
		return m.Open
	}
	return m.Close
}

type LockCommand struct {
	GatewaySerialNumber string
	SerialNumber        string
	Mark                LockMark
	CorrelationID       string
}

// AirbnkClient talks to the vendor cloud. Every method returns one of *TransportError,
// *HTTPError or *ApplicationError on failure.
type AirbnkClient interface {
	RequestVerificationCode(ctx context.Context, email string) error
	RetrieveAccessToken(ctx context.Context, email string, code string) (Credentials, error)

	ListDevices(ctx context.Context, creds Credentials) ([]Device, error)
	OperateLock(ctx context.Context, creds Credentials, cmd LockCommand) error
}
