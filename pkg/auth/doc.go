// Package auth implements the credential and identity primitives of the
// service: PBKDF2 password derivation and verification, the per-request
// SecurityContext, and parsing of the reverse-proxy client certificate
// subject header.
//
// PASSWORD HASHING
//
// Credentials are stored as a (salt, hash) pair, both exactly 64 bytes (the
// SHA-512 digest length). Hashing is PBKDF2-HMAC-SHA512 at 100,000
// iterations. The iteration count and algorithm are fixed constants; the
// stored format carries no version field, so changing either without a
// migration breaks verification of existing credentials.
//
// SECURITY CONTEXT
//
// The security middleware resolves a principal once per request and attaches
// an immutable SecurityContext to the request context. Handlers retrieve it
// with FromContext, which fails with ErrNoSecurityContext when resolution
// never ran. There is deliberately no default identity fallback.
package auth
