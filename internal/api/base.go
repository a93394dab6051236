// Package api talks to the reflecto backend: base URL resolution, the two
// write calls, and the replay fetch. The event stream lives in
// internal/stream.
package api

// ResolveBase derives the backend base URL from the host the client runs
// against. Local development talks to the backend directly on port 8000; the
// containerized frontend/backend pair is reached through the /api proxy
// prefix; any other host is same-origin with no rewrite.
func ResolveBase(host string) string {
	switch host {
	case "localhost", "127.0.0.1":
		return "http://localhost:8000"
	case "reflecto-frontend", "reflecto-backend":
		return "/api"
	}
	return ""
}
