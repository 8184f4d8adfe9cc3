package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/smartbedding/panel/internal/common"
	"github.com/smartbedding/panel/internal/models"
)

var (
	// ErrUnauthorized is returned when the device answers 401.
	ErrUnauthorized = errors.New("device rejected authorization")
	// ErrMalformedResponse is returned when the envelope cannot be decoded.
	ErrMalformedResponse = errors.New("malformed device response")
)

const (
	AuthPath         = "/auth"
	VerifyPath       = "/verify"
	ConnectivityPath = "/connectivity"
)

type Options struct {
	Endpoint  string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// DeviceClient talks to the device API. Every call goes through the
// Authorizer installed as the resty transport.
type DeviceClient struct {
	endpoint   string
	client     *resty.Client
	authorizer *Authorizer
}

func NewDeviceClient(opts Options, tokens TokenSource) (*DeviceClient, error) {

	endpoint := strings.TrimSuffix(opts.Endpoint, "/")
	if len(endpoint) == 0 {
		return nil, fmt.Errorf("device endpoint is not configured")
	}

	authorizer := NewAuthorizer(tokens, opts.Transport)

	client := resty.New().
		SetBaseURL(endpoint).
		SetTransport(authorizer).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", common.ReadBuildInfo().UserAgent())

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	logrus.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"timeout":  opts.Timeout,
	}).Debugln("Created device client")

	return &DeviceClient{
		endpoint:   endpoint,
		client:     client,
		authorizer: authorizer,
	}, nil
}

func (d *DeviceClient) Endpoint() string {
	return d.endpoint
}

// OnUnauthorized registers the handler fired by the authorizer on 401.
func (d *DeviceClient) OnUnauthorized(handler UnauthorizedHandler) {
	d.authorizer.OnUnauthorized(handler)
}

// Login exchanges a code for a token.
func (d *DeviceClient) Login(ctx context.Context, code string) (*models.ApiResponse[string], error) {

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.LoginRequest{Code: code}).
		Post(AuthPath)

	if err != nil {
		return nil, fmt.Errorf("failed to send login request: %w", err)
	}

	return decodeEnvelope[string](resp)
}

// Verify asks the device whether the stored token is still accepted.
func (d *DeviceClient) Verify(ctx context.Context) (*models.ApiResponse[json.RawMessage], error) {

	resp, err := d.client.R().
		SetContext(ctx).
		Get(VerifyPath)

	if err != nil {
		return nil, fmt.Errorf("failed to send verify request: %w", err)
	}

	return decodeEnvelope[json.RawMessage](resp)
}

// Connectivity fetches the device connectivity status.
func (d *DeviceClient) Connectivity(ctx context.Context) (*models.ApiResponse[models.DeviceStatus], error) {

	resp, err := d.client.R().
		SetContext(ctx).
		Get(ConnectivityPath)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch connectivity: %w", err)
	}

	return decodeEnvelope[models.DeviceStatus](resp)
}

// decodeEnvelope decodes the shared envelope. A 401 still decodes the body when
// possible but always surfaces ErrUnauthorized to the caller.
func decodeEnvelope[T any](resp *resty.Response) (*models.ApiResponse[T], error) {

	var envelope models.ApiResponse[T]
	decodeErr := json.Unmarshal(resp.Body(), &envelope)

	if resp.StatusCode() == http.StatusUnauthorized {
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status())
		}
		return &envelope, fmt.Errorf("%w: %s", ErrUnauthorized, envelope.GetMessage())
	}

	if resp.IsError() {
		logrus.WithFields(logrus.Fields{
			"url":    resp.Request.URL,
			"status": resp.StatusCode(),
			"body":   string(resp.Body()),
		}).Errorln("Device returned an error")
		return nil, fmt.Errorf("device returned %s", resp.Status())
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}

	// Data is only meaningful on success
	if !envelope.Result {
		envelope.Data = nil
	}

	return &envelope, nil
}
