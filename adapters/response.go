package adapters

import (
	"encoding/json"

	"airbnk-to-mqtt/application"
)

const airbnkCodeOK = 200

type envelope struct {
	Code    int             `json:"code"`
	Info    string          `json:"info"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) text() string {
	if e.Info != "" {
		return e.Info
	}
	return e.Message
}

// classifyResponse maps the result of one HTTP call to the embedded data payload or to
// exactly one of *TransportError, *HTTPError, *ApplicationError. The error from the
// transport is checked before resp is touched.
func classifyResponse(endpoint string, resp *HTTPResponse, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, &application.TransportError{Endpoint: endpoint, Err: err}
	}
	if resp == nil {
		return nil, &application.TransportError{Endpoint: endpoint, Err: errNoResponse}
	}

	if resp.StatusCode != 200 {
		return nil, &application.HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &application.ApplicationError{
			Endpoint: endpoint,
			Message:  "malformed response: " + err.Error(),
			Body:     string(resp.Body),
		}
	}

	if env.Code != airbnkCodeOK {
		return nil, &application.ApplicationError{
			Endpoint: endpoint,
			Code:     env.Code,
			Message:  env.text(),
			Body:     string(resp.Body),
		}
	}

	return env.Data, nil
}
