package httpclient

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gaborage/dataapi-go/apierror"
	"github.com/gaborage/dataapi-go/logger"
)

const (
	msgRequest  = "REST client request"
	msgResponse = "REST client response"
)

var headerFilter = logger.NewSensitiveDataFilter(nil)

// logRequest logs the outgoing request
func (c *client) logRequest(req *nethttp.Request, body []byte, requestID string) {
	logEvent := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Str("request_id", requestID)

	if len(req.Header) > 0 {
		logEvent = logEvent.Int("header_count", len(req.Header))
	}
	if len(body) > 0 {
		logEvent = logEvent.Int("body_size", len(body))
	}
	logEvent.Msg(msgRequest)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.payloadPreview(body)
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", requestID).
		Interface("headers", headerFilter.MaskHeaders(req.Header)).
		Int("body_size", len(body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(msgRequest)
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response, requestID string) {
	logEvent := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount).
		Str("request_id", requestID)

	if len(resp.Body) > 0 {
		logEvent = logEvent.Int("body_size", len(resp.Body))
	}
	logEvent.Msg(msgResponse)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := c.payloadPreview(resp.Body)
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", headerFilter.MaskHeaders(resp.Headers)).
		Int("body_size", len(resp.Body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(msgResponse)
}

func (c *client) payloadPreview(body []byte) ([]byte, bool) {
	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}

// logRetry logs a failed attempt that will be retried
func (c *client) logRetry(cl *call, attempt int, delay time.Duration, err error) {
	c.logger.Warn().
		Err(err).
		Str("method", cl.req.Method()).
		Str("url", cl.safeURL).
		Str("request_id", cl.requestID).
		Int("attempt", attempt+1).
		Dur("delay", delay).
		Str("state", string(cl.state)).
		Msg("Retrying DataAPI request")
}

// logFailure logs the error that ends a logical call
func (c *client) logFailure(cl *call, err error) {
	logEvent := c.logger.Error().
		Err(err).
		Str("method", cl.req.Method()).
		Str("url", cl.safeURL).
		Str("request_id", cl.requestID).
		Int("attempts", cl.attempts).
		Str("state", string(cl.state))
	if kind := apierror.KindOf(err); kind != "" {
		logEvent = logEvent.Str("kind", kind.String()).Bool("retryable", kind.Retryable())
	}
	logEvent.Msg("DataAPI request failed")
}
