// Package config loads application configuration from environment variables
// with the ORGANIZATOR_ prefix, plus an optional YAML access policy file
// that sets the minimum access level required per operation.
package config
