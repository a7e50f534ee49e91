package api

import (
	"errors"
	"net/http"

	"github.com/organizator/organizator/pkg/audit"
	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/contextkeys"
	"github.com/organizator/organizator/pkg/errs"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/middleware"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/session"
	"github.com/organizator/organizator/pkg/users"
)

// failedLoginMessage is returned for unknown usernames and wrong passwords
// alike, so a caller cannot tell which factor mismatched.
const failedLoginMessage = "authentication failed"

// AuthHandlers implements login, logout and password change.
type AuthHandlers struct {
	logger     *observability.Logger
	metrics    *observability.Metrics
	sessions   *session.Store
	verifier   *auth.Verifier
	users      *users.Store
	audit      audit.Logger
	rootUserID int
}

// NewAuthHandlers creates the session lifecycle handlers.
func NewAuthHandlers(deps Deps) *AuthHandlers {
	return &AuthHandlers{
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		sessions:   deps.Sessions,
		verifier:   deps.Verifier,
		users:      deps.Users,
		audit:      deps.Audit,
		rootUserID: deps.RootUserID,
	}
}

// Login handles POST /login. The form must carry j_username and
// j_password; a missing field is a client error detected before any
// database access.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	form, missing := httputil.RequireFormValues(r, "j_username", "j_password")
	if missing != "" {
		httputil.WriteBadRequest(w, "missing form field: "+missing)
		return
	}
	username := form["j_username"]

	cred, err := h.users.Credential(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			h.loginFailed(r, username, "unknown username")
			httputil.WriteUnauthorized(w, failedLoginMessage)
			return
		}
		h.countLogin("error")
		writeError(w, err)
		return
	}

	ok, err := h.verifier.Verify(ctx, form["j_password"], cred.Salt, cred.Hash)
	if err != nil {
		h.countLogin("error")
		writeError(w, err)
		return
	}
	if !ok {
		h.loginFailed(r, username, "wrong password")
		httputil.WriteUnauthorized(w, failedLoginMessage)
		return
	}

	h.sessions.Set(w, username)
	h.countLogin("success")
	h.recordAuth(r, audit.EventTypeAuthLogin, username, audit.EventStatusSuccess, "logged in")
	httputil.WriteNoContent(w)
}

// Logout handles POST /logout. Clearing an absent session is still a
// success; logout is idempotent.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	principal := ""
	if sec, err := auth.FromContext(r.Context()); err == nil {
		principal = sec.Principal
	}

	h.sessions.Clear(w)
	h.recordAuth(r, audit.EventTypeAuthLogout, principal, audit.EventStatusSuccess, "logged out")
	httputil.WriteNoContent(w)
}

// ChangePassword handles POST /password. The caller re-proves their
// current password; only the root user may name a different target
// username. Verify and write are sequential independent steps: a crash
// between them leaves the old password valid.
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	form, missing := httputil.RequireFormValues(r, "old_password", "new_password")
	if missing != "" {
		httputil.WriteBadRequest(w, "missing form field: "+missing)
		return
	}

	caller, err := h.users.Credential(ctx, sec.Principal)
	if err != nil {
		h.countPasswordChange("error")
		writeError(w, err)
		return
	}

	target := sec.Principal
	if err := r.ParseForm(); err == nil {
		if requested := r.PostFormValue("username"); requested != "" {
			target = requested
		}
	}
	if target != sec.Principal && caller.UserID != h.rootUserID {
		h.countPasswordChange("denied")
		h.recordTargetedChange(r, sec.Principal, target, audit.EventStatusDenied, "non-root caller targeted another user")
		httputil.WriteForbidden(w, "forbidden")
		return
	}

	ok, err := h.verifier.Verify(ctx, form["old_password"], caller.Salt, caller.Hash)
	if err != nil {
		h.countPasswordChange("error")
		writeError(w, err)
		return
	}
	if !ok {
		h.countPasswordChange("failure")
		h.recordTargetedChange(r, sec.Principal, target, audit.EventStatusFailure, "old password mismatch")
		httputil.WriteUnauthorized(w, failedLoginMessage)
		return
	}

	salt, hash, err := h.verifier.Derive(ctx, form["new_password"])
	if err != nil {
		h.countPasswordChange("error")
		writeError(w, err)
		return
	}

	if err := h.users.UpdatePassword(ctx, target, salt, hash); err != nil {
		h.countPasswordChange("error")
		writeError(w, err)
		return
	}

	h.countPasswordChange("success")
	h.recordTargetedChange(r, sec.Principal, target, audit.EventStatusSuccess, "password changed")
	httputil.WriteNoContent(w)
}

func (h *AuthHandlers) loginFailed(r *http.Request, username, reason string) {
	h.countLogin("failure")
	h.recordAuth(r, audit.EventTypeAuthLoginFailed, username, audit.EventStatusFailure, reason)
}

func (h *AuthHandlers) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *AuthHandlers) countPasswordChange(outcome string) {
	if h.metrics != nil {
		h.metrics.PasswordChangesTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *AuthHandlers) recordAuth(r *http.Request, eventType audit.EventType, username string, status audit.EventStatus, message string) {
	event := audit.NewEvent(eventType, status)
	event.Username = username
	event.Message = message
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextkeys.GetRequestID(r.Context())
	h.record(r, event)
}

func (h *AuthHandlers) recordTargetedChange(r *http.Request, username, target string, status audit.EventStatus, message string) {
	event := audit.NewEvent(audit.EventTypeAuthPasswordChange, status)
	event.Username = username
	if target != username {
		event.TargetUsername = target
	}
	event.Message = message
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextkeys.GetRequestID(r.Context())
	h.record(r, event)
}

// record writes the audit event; a failing audit sink never fails the
// request.
func (h *AuthHandlers) record(r *http.Request, event *audit.Event) {
	if h.metrics != nil {
		h.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType)).Inc()
	}
	if err := h.audit.Log(r.Context(), event); err != nil && h.logger != nil {
		h.logger.WithError(err).Warn("failed to record audit event")
	}
}
