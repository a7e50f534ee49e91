// Package middleware provides the request interception layer: security
// context resolution for every protected route and redis-backed rate
// limiting for the login endpoint.
package middleware
