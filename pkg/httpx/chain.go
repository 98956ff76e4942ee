package httpx

import "net/http"

// Middleware wraps a handler. It is assignable to chi's middleware type.
type Middleware func(http.Handler) http.Handler
