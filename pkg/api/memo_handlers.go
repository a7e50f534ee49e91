package api

import (
	"net/http"
	"strconv"

	"github.com/organizator/organizator/pkg/audit"
	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/config"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/memo"
	"github.com/organizator/organizator/pkg/middleware"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/users"
)

// MemoHandlers serves memo listing, search, read and write.
type MemoHandlers struct {
	logger  *observability.Logger
	metrics *observability.Metrics
	memos   *memo.Store
	users   *users.Store
	gate    *rbac.Gate
	audit   audit.Logger
	policy  config.AccessPolicy
}

func NewMemoHandlers(deps Deps) *MemoHandlers {
	return &MemoHandlers{
		logger:  deps.Logger,
		metrics: deps.Metrics,
		memos:   deps.Memos,
		users:   deps.Users,
		gate:    deps.Gate,
		audit:   deps.Audit,
		policy:  deps.Policy,
	}
}

// titleList is the payload for listing and search: the visible memo
// titles plus the record of the requesting user.
type titleList struct {
	Memos []memo.Title `json:"memos"`
	User  *users.User  `json:"user"`
}

// ListTitles handles GET /memo. It returns every memo the caller owns or
// holds a read grant on, newest first.
func (h *MemoHandlers) ListTitles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	titles, err := h.memos.Titles(ctx, sec.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	owner, err := h.users.ByUsername(ctx, sec.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, titleList{Memos: titles, User: owner})
}

// Search handles POST /memo. The search form field filters titles and
// bodies; an empty term degenerates to the full listing.
func (h *MemoHandlers) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "malformed form body")
		return
	}
	term := r.PostFormValue("search")

	titles, err := h.memos.Search(ctx, sec.Principal, term)
	if err != nil {
		writeError(w, err)
		return
	}
	owner, err := h.users.ByUsername(ctx, sec.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, titleList{Memos: titles, User: owner})
}

// Get handles GET /memo/{id}. Access is decided inside memo_read, which
// signals denial and absence through SQL states.
func (h *MemoHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := httputil.ParsePathInt(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "invalid memo id")
		return
	}

	m, err := h.memos.Read(ctx, id, sec.Principal)
	if err != nil {
		if isDenied(err) {
			h.recordDenial(r, sec.Principal, audit.ResourceTypeMemo, strconv.Itoa(id))
		}
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

// Write handles PUT /memo. With memo_id it updates, without it creates.
// A target group must grant the caller write access before the row is
// touched; the stored function then re-checks on its own side.
func (h *MemoHandlers) Write(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.WriteBadRequest(w, "malformed form body")
		return
	}

	req := memo.WriteRequest{Text: r.PostFormValue("text")}
	if v := r.PostFormValue("memo_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid memo_id")
			return
		}
		req.MemoID = &id
	}
	if v := r.PostFormValue("group_id"); v != "" {
		gid, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid group_id")
			return
		}
		req.GroupID = &gid
	}

	if req.GroupID != nil {
		if err := h.gate.RequireMemoGroup(ctx, sec.Principal, *req.GroupID, h.policy.MemoWrite); err != nil {
			if isDenied(err) {
				h.recordDenial(r, sec.Principal, audit.ResourceTypeMemoGroup, strconv.Itoa(*req.GroupID))
			}
			writeError(w, err)
			return
		}
	}

	result, err := h.memos.Write(ctx, req, sec.Principal)
	if err != nil {
		if isDenied(err) {
			id := "new"
			if req.MemoID != nil {
				id = strconv.Itoa(*req.MemoID)
			}
			h.recordDenial(r, sec.Principal, audit.ResourceTypeMemo, id)
		}
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// ListGroups handles GET /memogroup and returns the groups the caller
// can store memos under.
func (h *MemoHandlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	groups, err := h.memos.GroupsForUser(ctx, sec.Principal)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

func (h *MemoHandlers) recordDenial(r *http.Request, username string, resource audit.ResourceType, id string) {
	event := audit.NewEvent(audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied)
	event.Username = username
	event.ResourceType = resource
	event.ResourceID = id
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextRequestID(r)
	if h.metrics != nil {
		h.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType)).Inc()
	}
	if err := h.audit.Log(r.Context(), event); err != nil && h.logger != nil {
		h.logger.WithError(err).Warn("failed to record audit event")
	}
}
