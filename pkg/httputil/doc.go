// Package httputil provides HTTP handler utilities: JSON response writers,
// request parsing helpers, and request-scoped middleware (logging, recovery,
// request IDs).
package httputil
