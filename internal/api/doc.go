// Package api exposes the assistant over a small JSON HTTP surface.
//
// The API is a thin shim: every chat request is delegated to the router,
// sessions are managed against the in-memory session store, and errors are
// mapped from the core's typed failures onto HTTP status codes:
//
//	unsupported attachment        -> 422
//	backend failure               -> 502
//	session not found             -> 404
//	request validation            -> 400
//
// Routes:
//
//	GET    /health
//	POST   /api/v1/chat
//	GET    /api/v1/sessions
//	POST   /api/v1/sessions
//	GET    /api/v1/sessions/{id}
//	GET    /api/v1/sessions/{id}/messages
//	POST   /api/v1/sessions/{id}/reset
//	DELETE /api/v1/sessions/{id}
package api
