package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"airbnk-to-mqtt/application"

	"github.com/rs/zerolog"
)

const (
	AirbnkCloudURL = "https://wehereapi.seamooncloud.com"
	AirbnkLanguage = "2"
	AirbnkVersion  = "A_FD_1.8.0"

	airbnkSystemCode = "Android"
	airbnkDeviceID   = "123456789012345"

	EndpointVerificationCode = "/api/lock/sms"
	EndpointLogin            = "/api/lock/loginByAuthcode"
	EndpointDevices          = "/api/v2/lock/getAllDevicesNew"
	EndpointOperateLock      = "/api/lock/lockOrUnlockChildDevice"
)

var AirbnkHeaders = map[string]string{
	"user-agent":      "okhttp/3.12.0",
	"Accept-Encoding": "gzip, deflate",
}

var errNoResponse = errors.New("no response")

type DeviceModel struct {
	SerialNumber    string `json:"sn"`
	DeviceName      string `json:"deviceName"`
	DeviceType      string `json:"deviceType"`
	FirmwareVersion string `json:"firmwareVersion"`
	Gateway         string `json:"gateway"`
}

type LoginModel struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type AirbnkClientParams struct {
	BaseURL   string
	Transport Transport

	Log zerolog.Logger
}

func (p *AirbnkClientParams) EnsureDefaults() {
	if p.BaseURL == "" {
		p.BaseURL = AirbnkCloudURL
	}
	if p.Transport == nil {
		p.Transport = NewHTTPTransport(HTTPTransportParams{})
	}
}

type AirbnkClient struct {
	params AirbnkClientParams

	log zerolog.Logger
}

func NewAirbnkClient(params AirbnkClientParams) *AirbnkClient {
	params.EnsureDefaults()
	return &AirbnkClient{params: params, log: params.Log}
}

func (a *AirbnkClient) RequestVerificationCode(ctx context.Context, email string) error {
	q := baseQuery()
	q.Set("loginAcct", email)
	q.Set("mark", "10")
	q.Set("userId", "")

	_, err := a.call(ctx, http.MethodPost, EndpointVerificationCode, q)
	if err != nil {
		return err
	}

	a.log.Info().Str("email", email).Msg("verification code request succeeded")
	return nil
}

func (a *AirbnkClient) RetrieveAccessToken(ctx context.Context, email string, code string) (application.Credentials, error) {
	q := baseQuery()
	q.Set("loginAcct", email)
	q.Set("authCode", code)
	q.Set("systemCode", airbnkSystemCode)
	q.Set("deviceID", airbnkDeviceID)
	q.Set("mark", "1")

	data, err := a.call(ctx, http.MethodGet, EndpointLogin, q)
	if err != nil {
		return application.Credentials{}, err
	}

	var login LoginModel
	if err := decodeData(EndpointLogin, data, &login); err != nil {
		return application.Credentials{}, err
	}
	if login.UserID == "" || login.Token == "" {
		return application.Credentials{}, &application.ApplicationError{
			Endpoint: EndpointLogin,
			Code:     airbnkCodeOK,
			Message:  "login response without userId or token",
			Body:     string(data),
		}
	}

	a.log.Info().Str("email", email).Str("user_id", login.UserID).Msg("token retrieval succeeded")
	return application.Credentials{UserID: login.UserID, Token: login.Token, Email: email}, nil
}

func (a *AirbnkClient) ListDevices(ctx context.Context, creds application.Credentials) ([]application.Device, error) {
	q := baseQuery()
	q.Set("userId", creds.UserID)
	q.Set("token", creds.Token)

	data, err := a.call(ctx, http.MethodGet, EndpointDevices, q)
	if err != nil {
		return nil, err
	}

	var models []DeviceModel
	if err := decodeData(EndpointDevices, data, &models); err != nil {
		return nil, err
	}

	return airbnkDevicesToAppDevices(models), nil
}

func (a *AirbnkClient) OperateLock(ctx context.Context, creds application.Credentials, cmd application.LockCommand) error {
	q := baseQuery()
	q.Set("sn", cmd.GatewaySerialNumber)
	q.Set("userId", creds.UserID)
	q.Set("uuid", cmd.CorrelationID)
	q.Set("mark", string(cmd.Mark))
	q.Set("childDeviceSn", cmd.SerialNumber)
	q.Set("token", creds.Token)

	_, err := a.call(ctx, http.MethodPost, EndpointOperateLock, q)
	return err
}

func (a *AirbnkClient) call(ctx context.Context, method string, endpoint string, q url.Values) (json.RawMessage, error) {
	u := a.params.BaseURL + endpoint + "?" + q.Encode()

	log := a.log.With().Str("method", method).Str("endpoint", endpoint).Logger()
	log.Debug().Str("url", redactURL(u)).Msg("calling airbnk cloud")

	resp, err := a.params.Transport.Do(ctx, method, u, AirbnkHeaders)
	data, err := classifyResponse(endpoint, resp, err)
	if err != nil {
		var (
			httpErr *application.HTTPError
			appErr  *application.ApplicationError
		)
		switch {
		case errors.As(err, &httpErr):
			log.Error().Int("status_code", httpErr.StatusCode).Str("body", httpErr.Body).Msg("airbnk call failed")
		case errors.As(err, &appErr):
			log.Error().Int("code", appErr.Code).Str("info", appErr.Message).Str("body", appErr.Body).Msg("airbnk call rejected")
		default:
			log.Error().Err(err).Msg("airbnk call failed")
		}
		return nil, err
	}

	log.Debug().Int("data_len", len(data)).Msg("airbnk call succeeded")
	return data, nil
}

func baseQuery() url.Values {
	q := url.Values{}
	q.Set("language", AirbnkLanguage)
	q.Set("version", AirbnkVersion)
	return q
}

func decodeData(endpoint string, data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &application.ApplicationError{
			Endpoint: endpoint,
			Code:     airbnkCodeOK,
			Message:  fmt.Sprintf("malformed data: %v", err),
			Body:     string(data),
		}
	}
	return nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func airbnkDevicesToAppDevices(models []DeviceModel) []application.Device {
	devices := make([]application.Device, 0, len(models))
	for _, m := range models {
		devices = append(devices, application.Device{
			SerialNumber:    m.SerialNumber,
			Name:            m.DeviceName,
			DeviceType:      m.DeviceType,
			FirmwareVersion: m.FirmwareVersion,
			Gateway:         m.Gateway,
		})
	}
	return devices
}

var _ application.AirbnkClient = &AirbnkClient{}
