// Package testserver runs a scripted fake DataAPI for package tests.
//
// Routes are registered on an echo router, so path parameters use the echo
// syntax (/workflows/:id). Each route answers with its scripted responses in
// order and repeats the last one once the script is exhausted.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// Response is one scripted answer.
type Response struct {
	Status  int
	Body    any
	Headers map[string]string
	// Chunks are flushed one by one instead of Body.
	Chunks []string
	Delay  time.Duration
}

// JSON answers with status and body encoded as JSON.
func JSON(status int, body any) Response {
	return Response{Status: status, Body: body}
}

// Status answers with an empty body.
func Status(status int) Response {
	return Response{Status: status}
}

// Error answers with the DataAPI structured error body.
func Error(status int, code, message string) Response {
	return JSON(status, map[string]any{"code": code, "message": message, "requestId": "srv-" + code})
}

// Recorded is a request the server received.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Decode unmarshals the recorded body into v.
func (r Recorded) Decode(v any) error { return json.Unmarshal(r.Body, v) }

// Server is a scripted fake DataAPI.
type Server struct {
	t    testing.TB
	echo *echo.Echo
	http *httptest.Server

	mu       sync.Mutex
	requests []Recorded
	scripts  map[string]*script
}

type script struct {
	responses []Response
	next      int
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{t: t, echo: e, scripts: make(map[string]*script)}
	e.Use(s.record)

	s.http = httptest.NewServer(e)
	t.Cleanup(s.http.Close)
	return s
}

// URL is the base URL including the /api prefix.
func (s *Server) URL() string { return s.http.URL + "/api" }

// Close stops the server early, e.g. to provoke network errors.
func (s *Server) Close() { s.http.Close() }

// Handle scripts the answers for method and path (relative to /api).
func (s *Server) Handle(method, path string, responses ...Response) {
	if len(responses) == 0 {
		responses = []Response{Status(http.StatusOK)}
	}
	key := method + " " + path

	s.mu.Lock()
	_, exists := s.scripts[key]
	s.scripts[key] = &script{responses: responses}
	s.mu.Unlock()

	if !exists {
		s.echo.Add(method, "/api"+path, func(c echo.Context) error {
			return s.respond(c, s.nextResponse(key))
		})
	}
}

func (s *Server) nextResponse(key string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.scripts[key]
	resp := sc.responses[sc.next]
	if sc.next < len(sc.responses)-1 {
		sc.next++
	}
	return resp
}

func (s *Server) respond(c echo.Context, resp Response) error {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-c.Request().Context().Done():
			return nil
		}
	}

	for k, v := range resp.Headers {
		c.Response().Header().Set(k, v)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	if len(resp.Chunks) > 0 {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
		c.Response().WriteHeader(status)
		for _, chunk := range resp.Chunks {
			if _, err := io.WriteString(c.Response(), chunk); err != nil {
				return nil
			}
			c.Response().Flush()
		}
		return nil
	}

	switch body := resp.Body.(type) {
	case nil:
		return c.NoContent(status)
	case string:
		return c.Blob(status, echo.MIMEApplicationJSON, []byte(body))
	case []byte:
		return c.Blob(status, echo.MIMEApplicationJSON, body)
	default:
		return c.JSON(status, body)
	}
}

// record captures every request, including ones no route matched.
func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		return next(c)
	}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Last returns the most recent request and fails the test when there is none.
func (s *Server) Last() Recorded {
	s.t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		s.t.Fatalf("testserver: no requests received")
	}
	return reqs[len(reqs)-1]
}

// Calls counts the requests received for method and the concrete path
// (relative to /api).
func (s *Server) Calls(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			n++
		}
	}
	return n
}

// String summarizes the server address and request count.
func (s *Server) String() string {
	return fmt.Sprintf("testserver(%s, %d requests)", s.http.URL, len(s.Requests()))
}
