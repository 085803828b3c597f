package application

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockAirbnkClient struct {
	mock.Mock
}

func (m *MockAirbnkClient) RequestVerificationCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAirbnkClient) RetrieveAccessToken(ctx context.Context, email string, code string) (Credentials, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(Credentials), args.Error(1)
}

func (m *MockAirbnkClient) ListDevices(ctx context.Context, creds Credentials) ([]Device, error) {
	args := m.Called(ctx, creds)

	var devices []Device
	if devInt := args.Get(0); devInt != nil {
		devices = devInt.([]Device)
	}
	return devices, args.Error(1)
}

func (m *MockAirbnkClient) OperateLock(ctx context.Context, creds Credentials, cmd LockCommand) error {
	return m.Called(ctx, creds, cmd).Error(0)
}

var _ AirbnkClient = &MockAirbnkClient{}

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error {
	return m.Called(topic, qos, handler).Error(0)
}

func (m *MockMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

var _ MQTTClient = &MockMQTTClient{}

type staticCredentials struct {
	creds Credentials
	err   error
}

func (s staticCredentials) Credentials(ctx context.Context) (Credentials, error) {
	return s.creds, s.err
}

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Topic() string   { return m.topic }
func (m testMessage) Payload() []byte { return m.payload }

var testCreds = Credentials{UserID: "user-1", Token: "token-1", Email: "user@example.com"}

func scenarioListing() []Device {
	return []Device{
		{SerialNumber: "A1", Name: "Front door", Gateway: "G1", DeviceType: "L1", FirmwareVersion: "1.0"},
		{SerialNumber: "B2", Name: "Back door", Gateway: "", DeviceType: "L2"},
		{SerialNumber: "C3", Name: "Wifi gateway", Gateway: "G2", DeviceType: "W9"},
	}
}
