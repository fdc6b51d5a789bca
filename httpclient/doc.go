// Package httpclient is the request execution engine shared by every DataAPI
// resource wrapper. It turns a Request descriptor into an authenticated,
// retried HTTP exchange and the response into a decoded value or a typed
// *apierror.Error.
//
// Attempts
//   - Authentication headers are refreshed and merged before every attempt, so a
//     retry after a token refresh carries the new token.
//   - Header precedence: client defaults < authentication < request overrides <
//     Content-Type default when a body is present.
//   - Failures are classified by apierror.Classify and retried per retry.Policy.
//   - POST and PATCH are not retried unless the request was built with AllowRetry.
//
// Backoff Strategy
//   - delay = BaseDelay * 2^attempt; a Retry-After on a 429 wins.
//   - No jitter unless the policy enables it.
//
// Notes
//   - Request bodies are encoded once and re-sent by rebuilding the http.Request
//     on each attempt.
//   - Interceptor errors are not retried and are surfaced immediately.
//   - Caller cancellation stops retrying at once.
package httpclient
