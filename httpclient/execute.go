package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"

	"github.com/gaborage/dataapi-go/apierror"
)

// validating is implemented by decoded results that can check their own
// consistency, such as page.Result. Violations are reported, never fatal.
type validating interface {
	Validate() []string
}

// warner is implemented by clients able to report decode warnings.
type warner interface {
	warn(ctx context.Context, req *Request, warnings []string)
}

// Execute runs req and decodes the response body into T.
//
// HEAD requests and NoContent targets never decode; a 204 yields the zero T.
// A body that cannot be decoded into T fails with a non-retryable decode error.
func Execute[T any](ctx context.Context, c Client, req *Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}

	if req.Method() == nethttp.MethodHead || resp.StatusCode == nethttp.StatusNoContent {
		return out, nil
	}
	if _, ok := any(out).(NoContent); ok {
		return out, nil
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil {
		var zero T
		respURL := resp.url
		if respURL == "" {
			respURL = req.Path()
		}
		return zero, apierror.Classify(apierror.Input{
			Status:  resp.StatusCode,
			Header:  resp.Headers,
			Body:    resp.Body,
			Cause:   err,
			Method:  req.Method(),
			URL:     respURL,
			Path:    req.Path(),
			Timeout: req.Timeout(),
		})
	}

	if v, ok := any(&out).(validating); ok {
		if warnings := v.Validate(); len(warnings) > 0 {
			if w, ok := c.(warner); ok {
				w.warn(ctx, req, warnings)
			}
		}
	}
	return out, nil
}

// Exists issues a HEAD request and maps 2xx to true and 404 to false.
// Any other failure is returned.
func Exists(ctx context.Context, c Client, path string, opts ...RequestOption) (bool, error) {
	_, err := c.Head(ctx, path, opts...)
	switch {
	case err == nil:
		return true, nil
	case apierror.IsKind(err, apierror.KindNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (c *client) warn(ctx context.Context, req *Request, warnings []string) {
	c.logger.WithContext(ctx).Warn().
		Str("method", req.Method()).
		Str("path", req.Path()).
		Interface("warnings", warnings).
		Msg("DataAPI response failed consistency checks")
}
