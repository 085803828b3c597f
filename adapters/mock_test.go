package adapters

import (
	"context"
	"time"

	"airbnk-to-mqtt/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"
)

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	return m.Called().Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return m.Called(topic, qos, retained, payload).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(topic, qos, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(filters, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	return m.Called(topics).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	m.Called(topic, callback)
}

func (m *MockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return m.Called().Get(0).(mqtt.ClientOptionsReader)
}

var _ mqtt.Client = &MockMQTTClient{}

type MockToken struct {
	mock.Mock
}

func (m *MockToken) Wait() bool {
	return m.Called().Bool(0)
}

func (m *MockToken) WaitTimeout(d time.Duration) bool {
	return m.Called(d).Bool(0)
}

func (m *MockToken) Done() <-chan struct{} {
	return m.Called().Get(0).(<-chan struct{})
}

func (m *MockToken) Error() error {
	return m.Called().Error(0)
}

var _ mqtt.Token = &MockToken{}

func doneChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func pendingChan() <-chan struct{} {
	return make(chan struct{})
}

type MockMessage struct {
	topic   string
	payload []byte
}

func (m *MockMessage) Duplicate() bool   { return false }
func (m *MockMessage) Qos() byte         { return 1 }
func (m *MockMessage) Retained() bool    { return false }
func (m *MockMessage) Topic() string     { return m.topic }
func (m *MockMessage) MessageID() uint16 { return 1 }
func (m *MockMessage) Payload() []byte   { return m.payload }
func (m *MockMessage) Ack()              {}

var _ mqtt.Message = &MockMessage{}

type MockLockService struct {
	mock.Mock
}

func (m *MockLockService) Devices() []application.Device {
	return m.Called().Get(0).([]application.Device)
}

func (m *MockLockService) Device(sn string) (application.Device, bool) {
	args := m.Called(sn)
	return args.Get(0).(application.Device), args.Bool(1)
}

func (m *MockLockService) Operate(ctx context.Context, sn string, open bool) application.Outcome {
	return m.Called(ctx, sn, open).Get(0).(application.Outcome)
}

func (m *MockLockService) Refresh(ctx context.Context) ([]application.Device, error) {
	args := m.Called(ctx)

	var devices []application.Device
	if devInt := args.Get(0); devInt != nil {
		devices = devInt.([]application.Device)
	}
	return devices, args.Error(1)
}

var _ application.LockService = &MockLockService{}

type fakeTransport struct {
	resp *HTTPResponse
	err  error

	method  string
	url     string
	headers map[string]string
}

func (f *fakeTransport) Do(ctx context.Context, method string, url string, headers map[string]string) (*HTTPResponse, error) {
	f.method, f.url, f.headers = method, url, headers
	return f.resp, f.err
}
