package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Adapter is the transport capability: it performs the actual network call
// described by a merged configuration. The core never constructs HTTP
// semantics itself, it only shapes the configuration and classifies the
// adapter's result.
type Adapter interface {
	Do(ctx context.Context, cfg *Config) (*Response, error)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, cfg *Config) (*Response, error)

func (f AdapterFunc) Do(ctx context.Context, cfg *Config) (*Response, error) {
	return f(ctx, cfg)
}

// Response is the transport-agnostic result of a request.
type Response struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Headers    http.Header `json:"headers,omitempty"`
	Data       []byte      `json:"data,omitempty"`

	// Raw is the underlying transport response, when the adapter exposes one.
	// It is never persisted by stores.
	Raw *http.Response `json:"-"`
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Data, v)
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.Data)
}

// HTTPAdapter performs requests with a standard net/http client.
type HTTPAdapter struct {
	client *http.Client
}

// NewHTTPAdapter wraps client, or a default http.Client when nil.
func NewHTTPAdapter(client *http.Client) *HTTPAdapter {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPAdapter{client: client}
}

// Do implements Adapter.
func (a *HTTPAdapter) Do(ctx context.Context, cfg *Config) (*Response, error) {
	target, err := resolveURL(cfg)
	if err != nil {
		return nil, &RequestError{
			Type:      ErrorTypeTransport,
			Message:   "invalid request URL",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return nil, &RequestError{
			Type:      ErrorTypeTransport,
			Message:   "encoding request body",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &RequestError{
			Type:      ErrorTypeTransport,
			Message:   "building request",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpResp, err := a.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &RequestError{
			Type:      ErrorTypeTransport,
			Message:   "reading response body",
			Cause:     err,
			Timestamp: time.Now(),
		}
	}

	resp := &Response{
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    httpResp.Header.Clone(),
		Data:       data,
		Raw:        httpResp,
	}

	if httpResp.StatusCode >= 400 {
		return nil, &RequestError{
			Type:      ErrorTypeTransport,
			Message:   fmt.Sprintf("request failed: %s", resp.StatusText),
			Status:    httpResp.StatusCode,
			Timestamp: time.Now(),
		}
	}

	return resp, nil
}

func resolveURL(cfg *Config) (string, error) {
	raw := cfg.URL
	if cfg.BaseURL != "" && !strings.Contains(raw, "://") {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return "", err
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		raw = base.ResolveReference(ref).String()
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(cfg.Params) > 0 {
		q := u.Query()
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func classifyTransportError(err error) *RequestError {
	typ := ErrorTypeTransport
	code := ""
	if errors.Is(err, context.DeadlineExceeded) {
		typ = ErrorTypeTimeout
		code = CodeTimeout
	} else {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			typ = ErrorTypeTimeout
			code = CodeTimeout
		}
	}
	return &RequestError{
		Type:      typ,
		Message:   "transport request failed",
		Code:      code,
		Cause:     err,
		Timestamp: time.Now(),
	}
}
