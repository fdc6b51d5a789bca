// Package resources wraps the DataAPI resource endpoints on top of httpclient.
//
// Each wrapper formats a path, validates the request body and ids locally and
// delegates execution, retries and error classification to httpclient.Execute.
// Paths are relative to the client base URL, which carries the /api prefix.
package resources
