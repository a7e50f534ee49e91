// Package audit records security-relevant events: logins and login
// failures, logouts, password changes, authorization denials and file
// activity.
//
// Events flow through the Logger interface. DBLogger persists them to the
// audit_log table and supports retention cleanup; FileLogger appends JSON
// lines with size-based rotation for deployments that ship logs off-host;
// MultiLogger fans out to several sinks. Audit writes must never fail a
// request: callers log and continue on error.
package audit
