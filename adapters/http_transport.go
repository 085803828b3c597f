package adapters

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const HTTPDefaultTimeout = 30 * time.Second

type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single HTTP call. A non-nil error means no response was obtained.
type Transport interface {
	Do(ctx context.Context, method string, url string, headers map[string]string) (*HTTPResponse, error)
}

type HTTPTransportParams struct {
	Timeout time.Duration

	Client *http.Client
}

func (p *HTTPTransportParams) EnsureDefaults() {
	if p.Timeout == 0 {
		p.Timeout = HTTPDefaultTimeout
	}
	if p.Client == nil {
		p.Client = &http.Client{Timeout: p.Timeout}
	}
}

type HTTPTransport struct {
	client *http.Client
}

func NewHTTPTransport(params HTTPTransportParams) *HTTPTransport {
	params.EnsureDefaults()
	return &HTTPTransport{client: params.Client}
}

func (t *HTTPTransport) Do(ctx context.Context, method string, url string, headers map[string]string) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// decodeBody undoes Content-Encoding, net/http only does this itself when it
// chose the Accept-Encoding header.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}

	return io.ReadAll(r)
}

var _ Transport = &HTTPTransport{}
