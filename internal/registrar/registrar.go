// Package registrar announces a provisioned database host to the
// coordination backend.
//
// The backend answers a registration with a JSON object that carries either
// an "error" or a "success" key. The "error" key is checked first; an object
// with neither key is a protocol violation and is reported as
// ErrMalformedResponse, distinct from a backend-reported error.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/config"
)

var (
	// ErrUnreachable is returned when the request could not be delivered or
	// no response was received.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrBadStatus is wrapped by StatusError.
	ErrBadStatus = errors.New("backend returned non-success status")

	// ErrInvalidJSON is returned when the response body is not JSON.
	ErrInvalidJSON = errors.New("backend response is not valid JSON")

	// ErrMalformedResponse is returned when the response has neither an
	// "error" nor a "success" key.
	ErrMalformedResponse = errors.New("backend response has neither error nor success")
)

// StatusError reports a non-2xx HTTP status. The body is not inspected.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrBadStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// BackendError carries the value of the "error" key, uninterpreted.
type BackendError struct {
	Payload any
}

func (e *BackendError) Error() string {
	if s, ok := e.Payload.(string); ok {
		return "backend error: " + s
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Sprintf("backend error: %v", e.Payload)
	}
	return "backend error: " + string(raw)
}

// Registrar is implemented by Client.
type Registrar interface {
	RegisterDatabase(ctx context.Context, backendAddr, localAddr string) (string, error)
}

type registration struct {
	IPAddr string `json:"ipAddr"`
}

// Client posts registrations to the backend's add-db endpoint.
type Client struct {
	port   int
	path   string
	http   *resty.Client
	logger logrus.FieldLogger
}

// New creates a client for the endpoint described by cfg. cfg.Address is
// ignored; the backend address is passed per call.
func New(cfg config.BackendConfig, logger logrus.FieldLogger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	port := cfg.Port
	if port == 0 {
		port = 8000
	}
	path := cfg.Path
	if path == "" {
		path = "/api/add-db"
	}

	rc := resty.New().
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	return &Client{
		port:   port,
		path:   path,
		http:   rc,
		logger: logger.WithField("component", "registrar"),
	}
}

// Endpoint returns the URL a registration for backendAddr is posted to.
func (c *Client) Endpoint(backendAddr string) string {
	b := config.BackendConfig{Address: backendAddr, Port: c.port, Path: c.path}
	return b.BackendURL()
}

// RegisterDatabase posts {"ipAddr": localAddr} to the backend and returns
// the backend's success value as text.
func (c *Client) RegisterDatabase(ctx context.Context, backendAddr, localAddr string) (string, error) {
	url := c.Endpoint(backendAddr)
	log := c.logger.WithFields(logrus.Fields{"url": url, "ip_addr": localAddr})
	log.Debug("registering database host")

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(registration{IPAddr: localAddr}).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreachable, url, err)
	}
	log = log.WithFields(logrus.Fields{
		"status":   resp.StatusCode(),
		"duration": time.Since(start).Round(time.Millisecond),
	})

	if !resp.IsSuccess() {
		log.Warn("registration rejected")
		return "", &StatusError{Code: resp.StatusCode()}
	}

	result, err := classify(resp.Body())
	if err != nil {
		log.WithError(err).Warn("registration failed")
		return "", err
	}
	log.WithField("result", result).Info("database host registered")
	return result, nil
}

// classify interprets a 2xx response body.
func classify(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", ErrInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("%w: body is not an object", ErrMalformedResponse)
	}

	if raw, ok := fields["error"]; ok {
		var payload any
		_ = json.Unmarshal(raw, &payload)
		return "", &BackendError{Payload: payload}
	}

	raw, ok := fields["success"]
	if !ok {
		return "", ErrMalformedResponse
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw), nil
	}
	return buf.String(), nil
}
