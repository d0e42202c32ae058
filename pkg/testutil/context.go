package testutil

import (
	"net/http"
	"time"

	"trialconsent/pkg/requestcontext"
)

// WithActor marks the request as sent by an authenticated study staff
// member, the way RequireAuth would.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
