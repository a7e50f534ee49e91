// Package users reads and writes user accounts and their password
// credentials.
//
// Credentials are a paired 64-byte salt and 64-byte PBKDF2 hash. The pair
// is always replaced as a whole; a record whose salt or hash has the wrong
// length is surfaced as corrupt rather than silently accepted, since
// verifying against it could never succeed.
package users
