// Package api wires the HTTP surface: session lifecycle (login, logout,
// password change), memo and memo group reads and writes, user lookups and
// file upload/download.
//
// Every route except /login sits behind the security resolution middleware,
// so handlers can rely on an authenticated principal being present in the
// request context. Handlers consult the authorization gate before touching
// data and map the error taxonomy onto HTTP statuses without leaking why
// access was denied.
package api
