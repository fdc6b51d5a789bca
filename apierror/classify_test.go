package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetTimeout struct{}

func (fakeNetTimeout) Error() string   { return "i/o timeout" }
func (fakeNetTimeout) Timeout() bool   { return true }
func (fakeNetTimeout) Temporary() bool { return true }

func TestClassifyNoResponse(t *testing.T) {
	t.Run("connection refused is a network error", func(t *testing.T) {
		cause := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
		err := Classify(Input{Cause: cause, Method: http.MethodGet, URL: "http://localhost/api"})

		assert.Equal(t, KindNetwork, err.Kind())
		assert.Equal(t, 0, err.StatusCode())
		assert.True(t, err.Retryable())
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
		assert.Equal(t, http.MethodGet, err.Method())
	})

	t.Run("deadline exceeded is a timeout", func(t *testing.T) {
		err := Classify(Input{Cause: context.DeadlineExceeded, Timeout: 2 * time.Second})

		assert.Equal(t, KindTimeout, err.Kind())
		assert.Equal(t, 2*time.Second, err.Timeout())
		assert.True(t, err.Retryable())
	})

	t.Run("net.Error timeout is a timeout", func(t *testing.T) {
		err := Classify(Input{Cause: fmt.Errorf("read: %w", fakeNetTimeout{})})
		assert.Equal(t, KindTimeout, err.Kind())
	})

	t.Run("caller cancellation is a network error", func(t *testing.T) {
		err := Classify(Input{Cause: context.Canceled})
		assert.Equal(t, KindNetwork, err.Kind())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		kind      Kind
		retryable bool
	}{
		{"unauthorized", 401, `{"message":"bad token"}`, KindAuthentication, false},
		{"forbidden", 403, `{"message":"nope"}`, KindAuthorization, false},
		{"not found", 404, `{"message":"not found"}`, KindNotFound, false},
		{"conflict", 409, `{"message":"exists"}`, KindConflict, false},
		{"unprocessable", 422, `{"message":"invalid"}`, KindValidation, false},
		{"bad request with field", 400, `{"message":"invalid","field":"name"}`, KindValidation, false},
		{"bad request with errors list", 400, `{"errors":[{"field":"size","rule":"max"}]}`, KindValidation, false},
		{"bad request unstructured", 400, `oops`, KindUnexpected, false},
		{"rate limited", 429, `{}`, KindRateLimit, true},
		{"internal", 500, ``, KindServer, true},
		{"bad gateway", 502, `<html>`, KindServer, true},
		{"unavailable", 503, `{"message":"down"}`, KindServer, true},
		{"edge of range", 599, ``, KindServer, true},
		{"redirect", 302, ``, KindUnexpected, false},
		{"ok with decode failure", 200, `{bad`, KindDecode, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(Input{Status: tt.status, Body: []byte(tt.body)})
			assert.Equal(t, tt.kind, err.Kind())
			assert.Equal(t, tt.status, err.StatusCode())
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.Equal(t, []byte(tt.body), err.Body())
		})
	}
}

func TestClassifyStructuredBody(t *testing.T) {
	body := `{"message":"name is taken","code":"DUPLICATE","requestId":"req-1","details":{"name":"wf"}}`
	err := Classify(Input{Status: 409, Body: []byte(body)})

	assert.Equal(t, "name is taken", err.Message())
	assert.Equal(t, "DUPLICATE", err.Code())
	assert.Equal(t, "req-1", err.RequestID())
	assert.Equal(t, map[string]any{"name": "wf"}, err.Details())
}

func TestClassifyNumericAndSnakeCaseFields(t *testing.T) {
	err := Classify(Input{Status: 403, Body: []byte(`{"message":"denied","code":4031,"request_id":"r-9"}`)})
	assert.Equal(t, "4031", err.Code())
	assert.Equal(t, "r-9", err.RequestID())

	err = Classify(Input{Status: 403, Body: []byte(`{"error":"denied","error_code":"E1"}`)})
	assert.Equal(t, "denied", err.Message())
	assert.Equal(t, "E1", err.Code())
}

func TestClassifyRequestIDHeaderWins(t *testing.T) {
	header := http.Header{}
	header.Set(HeaderRequestID, "from-header")
	err := Classify(Input{Status: 500, Header: header, Body: []byte(`{"requestId":"from-body"}`)})
	assert.Equal(t, "from-header", err.RequestID())
}

func TestClassifyDefaultMessage(t *testing.T) {
	err := Classify(Input{Status: 503})
	assert.Equal(t, "HTTP 503 service unavailable", err.Message())
}

func TestClassifyNotFoundResource(t *testing.T) {
	err := Classify(Input{Status: 404, Path: "/api/workflows/unknown-id", Body: []byte(`{"message":"not found"}`)})

	assert.Equal(t, KindNotFound, err.Kind())
	assert.Equal(t, 404, err.StatusCode())
	assert.Equal(t, "workflows", err.ResourceType())
	assert.Equal(t, "unknown-id", err.ResourceID())
	assert.Equal(t, "not found", err.Message())
}

func TestClassifyValidationRules(t *testing.T) {
	body := `{"message":"invalid","errors":[{"field":"name","rule":"required"},{"field":"name","code":"max"}]}`
	err := Classify(Input{Status: 422, Body: []byte(body)})

	assert.Equal(t, "name", err.Field())
	assert.Equal(t, []string{"required", "max"}, err.Rules())
}

func TestClassifyRateLimitRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("header seconds", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{"7"}}
		err := Classify(Input{Status: 429, Header: header, DefaultRetryAfter: time.Second})
		assert.Equal(t, 7*time.Second, err.RetryAfter())
	})

	t.Run("header http date", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{now.Add(30 * time.Second).Format(http.TimeFormat)}}
		err := Classify(Input{Status: 429, Header: header, Now: now})
		assert.Equal(t, 30*time.Second, err.RetryAfter())
	})

	t.Run("body value", func(t *testing.T) {
		err := Classify(Input{Status: 429, Body: []byte(`{"message":"slow down","retry_after":2.5}`)})
		assert.Equal(t, 2500*time.Millisecond, err.RetryAfter())
	})

	t.Run("policy default", func(t *testing.T) {
		err := Classify(Input{Status: 429, DefaultRetryAfter: 3 * time.Second})
		assert.Equal(t, 3*time.Second, err.RetryAfter())
		assert.True(t, err.HasRetryAfter())
	})

	t.Run("explicit zero is kept", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{"0"}}
		err := Classify(Input{Status: 429, Header: header, DefaultRetryAfter: 3 * time.Second})
		assert.True(t, err.HasRetryAfter())
		assert.Equal(t, time.Duration(0), err.RetryAfter())
		assert.Equal(t, 0.0, err.ToMap()["retryAfterSeconds"])
	})

	t.Run("no delay anywhere", func(t *testing.T) {
		err := Classify(Input{Status: 429})
		assert.False(t, err.HasRetryAfter())
		assert.NotContains(t, err.ToMap(), "retryAfterSeconds")
	})

	t.Run("huge header is capped", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{"99999999999"}}
		err := Classify(Input{Status: 429, Header: header})
		assert.Equal(t, MaxRetryAfter, err.RetryAfter())
	})

	t.Run("huge body value is capped", func(t *testing.T) {
		err := Classify(Input{Status: 429, Body: []byte(`{"retryAfter":1e300}`)})
		assert.Equal(t, MaxRetryAfter, err.RetryAfter())
	})
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	d, ok := ParseRetryAfter("120", now)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)

	d, ok = ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)

	_, ok = ParseRetryAfter("", now)
	assert.False(t, ok)
	_, ok = ParseRetryAfter("-3", now)
	assert.False(t, ok)
	_, ok = ParseRetryAfter("soon", now)
	assert.False(t, ok)

	d, ok = ParseRetryAfter("99999999999", now)
	assert.True(t, ok)
	assert.Equal(t, MaxRetryAfter, d)
	assert.Greater(t, d, time.Duration(0))

	d, ok = ParseRetryAfter(now.AddDate(5, 0, 0).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Equal(t, MaxRetryAfter, d)
}

func TestResourceFromPath(t *testing.T) {
	tests := []struct {
		path, resourceType, resourceID string
	}{
		{"/api/workflows/42", "workflows", "42"},
		{"/api/projects/a%20b?expand=true", "projects", "a b"},
		{"/health", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rt, id := ResourceFromPath(tt.path)
			assert.Equal(t, tt.resourceType, rt)
			assert.Equal(t, tt.resourceID, id)
		})
	}
}

func TestErrorDiagnostics(t *testing.T) {
	cause := errors.New("boom")
	err := New(KindServer, "upstream failed",
		WithStatus(502),
		WithRequestID("req-7"),
		WithCause(cause),
		WithRequest(http.MethodPost, "https://api.example.com/api/workflows/create"),
	)

	assert.Equal(t, "server error: upstream failed (status: 502): boom", err.Error())
	assert.ErrorIs(t, err, cause)

	m := err.ToMap()
	assert.Equal(t, "server", m["kind"])
	assert.Equal(t, 502, m["status"])
	assert.Equal(t, true, m["retryable"])
	assert.Equal(t, "boom", m["cause"])
	assert.NotContains(t, m, "field")

	raw, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"kind":"server","message":"upstream failed","retryable":true,"status":502,
		"requestId":"req-7","cause":"boom","method":"POST","url":"https://api.example.com/api/workflows/create"}`, string(raw))
}

func TestErrorImmutability(t *testing.T) {
	body := []byte(`{"message":"x"}`)
	err := New(KindValidation, "bad", WithBody(body), WithRules("required"))

	body[0] = 'X'
	assert.Equal(t, byte('{'), err.Body()[0])

	rules := err.Rules()
	rules[0] = "mutated"
	assert.Equal(t, []string{"required"}, err.Rules())
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KindRateLimit, "slow", WithStatus(429)))

	assert.Equal(t, KindRateLimit, KindOf(err))
	assert.True(t, IsKind(err, KindRateLimit))
	assert.True(t, IsRetryable(err))
	assert.True(t, IsStatus(err, 429))
	assert.False(t, IsKind(nil, KindRateLimit))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindNetwork, KindTimeout, KindRateLimit, KindServer}
	for _, k := range retryable {
		assert.True(t, k.Retryable(), k.String())
	}
	never := []Kind{KindAuthentication, KindAuthorization, KindNotFound, KindConflict, KindValidation, KindDecode, KindUnexpected}
	for _, k := range never {
		assert.False(t, k.Retryable(), k.String())
	}
}

func TestWithoutRetryOverridesKind(t *testing.T) {
	err := New(KindTimeout, "rate limit wait would exceed the context deadline", WithoutRetry())
	assert.Equal(t, KindTimeout, err.Kind())
	assert.False(t, err.Retryable())
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", err)))
	assert.True(t, New(KindTimeout, "slow").Retryable())
}
