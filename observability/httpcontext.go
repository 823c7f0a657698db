package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// Request-id propagation over HTTP. Incoming ids are honored so a caller can
// correlate its own logs; responses always carry the id back.

const headerRequestID = "X-Request-ID"

type requestIDKey struct{}

// GenerateRequestID returns a 32-char random hex id.
func GenerateRequestID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// WithRequestID stores a request id in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext retrieves the request id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// ExtractHTTPContext pulls the request id from the incoming headers, minting
// one when absent.
func ExtractHTTPContext(ctx context.Context, r *http.Request) context.Context {
	id := r.Header.Get(headerRequestID)
	if id == "" {
		id = GenerateRequestID()
	}
	return WithRequestID(ctx, id)
}

// InjectHTTPHeaders echoes the request id onto the response.
func InjectHTTPHeaders(w http.ResponseWriter, ctx context.Context) {
	if id, ok := RequestIDFromContext(ctx); ok {
		w.Header().Set(headerRequestID, id)
	}
}
