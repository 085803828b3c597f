package adapters

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"airbnk-to-mqtt/application"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = application.Credentials{UserID: "user-1", Token: "token-1", Email: "user@example.com"}

func newTestAirbnkClient(t *testing.T, handler http.HandlerFunc) *AirbnkClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAirbnkClient(AirbnkClientParams{
		BaseURL:   server.URL,
		Transport: NewHTTPTransport(HTTPTransportParams{}),
		Log:       zerolog.Nop(),
	})
}

func assertAirbnkRequest(t *testing.T, r *http.Request, method string, path string) url.Values {
	assert.Equal(t, method, r.Method)
	assert.Equal(t, path, r.URL.Path)
	assert.Equal(t, "okhttp/3.12.0", r.Header.Get("User-Agent"))
	assert.Equal(t, "gzip, deflate", r.Header.Get("Accept-Encoding"))

	q := r.URL.Query()
	assert.Equal(t, AirbnkLanguage, q.Get("language"))
	assert.Equal(t, AirbnkVersion, q.Get("version"))
	return q
}

func TestAirbnkClient_ListDevices(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := assertAirbnkRequest(t, r, http.MethodGet, EndpointDevices)
		assert.Equal(t, "user-1", q.Get("userId"))
		assert.Equal(t, "token-1", q.Get("token"))

		_, _ = w.Write([]byte(`{"code":200,"info":"ok","data":[
			{"sn":"A1","deviceName":"Front door","deviceType":"L1","firmwareVersion":"1.2","gateway":"G1"},
			{"sn":"B2","deviceName":"Back door","deviceType":"L2","firmwareVersion":"1.0","gateway":""}
		]}`))
	})

	devices, err := client.ListDevices(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, application.Device{
		SerialNumber:    "A1",
		Name:            "Front door",
		DeviceType:      "L1",
		FirmwareVersion: "1.2",
		Gateway:         "G1",
	}, devices[0])
}

func TestAirbnkClient_ListDevices_NullData(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":null}`))
	})

	devices, err := client.ListDevices(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestAirbnkClient_ListDevices_Gzip(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		_, _ = gw.Write([]byte(`{"code":200,"data":[{"sn":"A1","gateway":"G1","deviceType":"L1"}]}`))
		_ = gw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})

	devices, err := client.ListDevices(context.Background(), testCreds)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "A1", devices[0].SerialNumber)
}

func TestAirbnkClient_ListDevices_ApplicationError(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":401,"info":"token invalid"}`))
	})

	_, err := client.ListDevices(context.Background(), testCreds)
	var appErr *application.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.Code)
	assert.Equal(t, EndpointDevices, appErr.Endpoint)
}

func TestAirbnkClient_ListDevices_MalformedData(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":{"sn":"A1"}}`))
	})

	_, err := client.ListDevices(context.Background(), testCreds)
	var appErr *application.ApplicationError
	require.ErrorAs(t, err, &appErr)
}

func TestAirbnkClient_OperateLock(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := assertAirbnkRequest(t, r, http.MethodPost, EndpointOperateLock)
		assert.Equal(t, "G1", q.Get("sn"))
		assert.Equal(t, "user-1", q.Get("userId"))
		assert.Equal(t, "uuid-1", q.Get("uuid"))
		assert.Equal(t, "2", q.Get("mark"))
		assert.Equal(t, "A1", q.Get("childDeviceSn"))
		assert.Equal(t, "token-1", q.Get("token"))

		_, _ = w.Write([]byte(`{"code":200,"info":"success"}`))
	})

	err := client.OperateLock(context.Background(), testCreds, application.LockCommand{
		GatewaySerialNumber: "G1",
		SerialNumber:        "A1",
		Mark:                "2",
		CorrelationID:       "uuid-1",
	})
	require.NoError(t, err)
}

func TestAirbnkClient_OperateLock_HTTPError(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	err := client.OperateLock(context.Background(), testCreds, application.LockCommand{SerialNumber: "A1"})
	var httpErr *application.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)
	assert.Equal(t, "boom", httpErr.Body)
}

func TestAirbnkClient_OperateLock_TransportError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	transport := &fakeTransport{resp: &HTTPResponse{StatusCode: 200}, err: cause}

	client := NewAirbnkClient(AirbnkClientParams{BaseURL: "http://airbnk.invalid", Transport: transport})

	err := client.OperateLock(context.Background(), testCreds, application.LockCommand{SerialNumber: "A1"})
	var transportErr *application.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.MethodPost, transport.method)
	assert.Equal(t, AirbnkHeaders, transport.headers)
}

func TestAirbnkClient_RequestVerificationCode(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := assertAirbnkRequest(t, r, http.MethodPost, EndpointVerificationCode)
		assert.Equal(t, "user@example.com", q.Get("loginAcct"))
		assert.Equal(t, "10", q.Get("mark"))
		assert.True(t, q.Has("userId"))

		_, _ = w.Write([]byte(`{"code":200,"info":"sent"}`))
	})

	require.NoError(t, client.RequestVerificationCode(context.Background(), "user@example.com"))
}

func TestAirbnkClient_RetrieveAccessToken(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := assertAirbnkRequest(t, r, http.MethodGet, EndpointLogin)
		assert.Equal(t, "user@example.com", q.Get("loginAcct"))
		assert.Equal(t, "123456", q.Get("authCode"))
		assert.Equal(t, "Android", q.Get("systemCode"))
		assert.Equal(t, "1", q.Get("mark"))
		assert.NotEmpty(t, q.Get("deviceID"))

		_, _ = w.Write([]byte(`{"code":200,"data":{"userId":"user-1","token":"token-1"}}`))
	})

	creds, err := client.RetrieveAccessToken(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, testCreds, creds)
}

func TestAirbnkClient_RetrieveAccessToken_MissingToken(t *testing.T) {
	client := newTestAirbnkClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":{"userId":"user-1"}}`))
	})

	_, err := client.RetrieveAccessToken(context.Background(), "user@example.com", "123456")
	var appErr *application.ApplicationError
	require.ErrorAs(t, err, &appErr)
}

func TestRedactURL(t *testing.T) {
	redacted := redactURL("https://example.com/api?token=secret&userId=1")
	assert.NotContains(t, redacted, "secret")
	assert.Contains(t, redacted, "userId=1")

	assert.Equal(t, "https://example.com/api?userId=1", redactURL("https://example.com/api?userId=1"))
}
