// Package gateway is the HTTP client for the remote contact/booking backend.
// Every operation issues exactly one request and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "consultation-booking/internal/common/errors"
	commonhttp "consultation-booking/internal/common/http"
	"consultation-booking/internal/common/logger"
	"consultation-booking/internal/common/metrics"
	"consultation-booking/internal/common/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
	tracer trace.Tracer
}

func NewClient(cfg *Config, log logger.Logger, opts ...commonhttp.Option) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout, opts...),
		logger: log.Named("gateway"),
		tracer: otel.Tracer("consultation-booking/gateway"),
	}
}

// SendContactEmail posts the final consultation message.
func (c *Client) SendContactEmail(ctx context.Context, req ContactEmailRequest) error {
	_, err := c.do(ctx, OpSendContactEmail, http.MethodPost, "/api/sendContactEmail", req, nil, nil)
	return err
}

// SendPartialFormData posts what an abandoning user entered so far.
func (c *Client) SendPartialFormData(ctx context.Context, req PartialFormRequest) error {
	_, err := c.do(ctx, OpSendPartialFormData, http.MethodPost, "/api/sendPartialFormData", req, nil, nil)
	return err
}

func (c *Client) GetEventTypes(ctx context.Context) (*EventTypesResponse, error) {
	body, err := c.do(ctx, OpGetEventTypes, http.MethodGet, "/api/getEventTypes", nil, nil, eventTypesSchema)
	if err != nil {
		return nil, err
	}

	var out EventTypesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(OpGetEventTypes, truncate(body), err)
	}
	return &out, nil
}

func (c *Client) GetAvailableTimes(ctx context.Context, req AvailableTimesRequest) (*AvailableSlotsResponse, error) {
	body, err := c.do(ctx, OpGetAvailableTimes, http.MethodPost, "/api/getAvailableTimes", req, nil, slotsSchema)
	if err != nil {
		return nil, err
	}

	var out AvailableSlotsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(OpGetAvailableTimes, truncate(body), err)
	}
	return &out, nil
}

// CreateCalcomBooking books the slot. idempotencyKey is sent as the
// Idempotency-Key header when non-empty.
func (c *Client) CreateCalcomBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*BookingResponse, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[IdempotencyHeader] = idempotencyKey
	}

	body, err := c.do(ctx, OpCreateBooking, http.MethodPost, "/api/createCalcomBooking", req, headers, bookingSchema)
	if err != nil {
		return nil, err
	}

	out := BookingResponse{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(OpCreateBooking, truncate(body), err)
	}
	return &out, nil
}

func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	payload interface{},
	headers map[string]string,
	schema *validation.Schema,
) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "gateway."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	)
	start := time.Now()
	log := c.logger.WithFields(map[string]interface{}{"operation": op})

	defer func() {
		elapsed := time.Since(start)
		metrics.GatewayRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		metrics.GatewayRequests.WithLabelValues(op, outcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome(err))
		}
		span.End()
	}()

	var reader io.Reader
	if payload != nil {
		raw, mErr := json.Marshal(payload)
		if mErr != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, mErr)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("Request did not reach backend", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewNetworkError(op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes()))
	if err != nil {
		return nil, apperrors.NewNetworkError(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Backend rejected request", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   truncate(body),
		})
		return nil, apperrors.NewRemoteServiceError(op, resp.StatusCode, truncate(body))
	}

	if schema == nil {
		log.Debug("Request succeeded", map[string]interface{}{"status": resp.StatusCode})
		return body, nil
	}

	// Content-Type is not trusted; the body alone decides.
	if result := schema.Validate(body); !result.Valid {
		log.Error("Backend response failed schema check", map[string]interface{}{
			"schema":      schema.Name(),
			"contentType": resp.Header.Get("Content-Type"),
			"errors":      result.GetErrorMessages(),
		})
		return nil, apperrors.NewMalformedResponseError(op, truncate(body), result.Err())
	}

	log.Debug("Request succeeded", map[string]interface{}{"status": resp.StatusCode})
	return body, nil
}

func (c *Client) maxBodyBytes() int64 {
	if c.config.MaxBodyBytes > 0 {
		return c.config.MaxBodyBytes
	}
	return 1 << 20
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch apperrors.ToStandardError(err).Code {
	case apperrors.ErrCodeRemoteServiceError:
		return metrics.OutcomeRemote
	case apperrors.ErrCodeMalformedResponse:
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeNetwork
	}
}

func truncate(body []byte) string {
	const limit = 2048
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
