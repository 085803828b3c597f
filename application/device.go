package application

import (
	"context"
	"strconv"
)

type LockStatus string

const (
	LockStatusIdle     LockStatus = "Idle"
	LockStatusOpening  LockStatus = "Opening..."
	LockStatusClosing  LockStatus = "Closing..."
	LockStatusOpen     LockStatus = "Open"
	LockStatusClosed   LockStatus = "Closed"
	LockStatusFailed   LockStatus = "Failed"
	LockStatusTimedOut LockStatus = "Timed out"
)

// LockStatusFailedCode is the terminal label for a command rejected with a non-200 HTTP status.
func LockStatusFailedCode(statusCode int) LockStatus {
	return LockStatus("Failed (" + strconv.Itoa(statusCode) + ")")
}

type Device struct {
	SerialNumber    string     `json:"sn"`
	Name            string     `json:"deviceName"`
	DeviceType      string     `json:"deviceType"`
	FirmwareVersion string     `json:"firmwareVersion"`
	Gateway         string     `json:"gateway"`
	LockStatus      LockStatus `json:"lockStatus"`

	// Revision increases on every registry change to the record. Zero means unversioned.
	Revision uint64 `json:"-"`
}

type Credentials struct {
	UserID string `yaml:"userId"`
	Token  string `yaml:"token"`
	Email  string `yaml:"email"`
}

type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}
