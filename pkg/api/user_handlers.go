package api

import (
	"net/http"

	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/users"
)

// UserHandlers serves user lookups.
type UserHandlers struct {
	users *users.Store
}

func NewUserHandlers(deps Deps) *UserHandlers {
	return &UserHandlers{users: deps.Users}
}

// Get handles GET /user/{id}.
func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := auth.FromContext(ctx); err != nil {
		writeError(w, err)
		return
	}
	id, err := httputil.ParsePathInt(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user id")
		return
	}

	user, err := h.users.ByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, user)
}

// List handles GET /user.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := auth.FromContext(ctx); err != nil {
		writeError(w, err)
		return
	}

	list, err := h.users.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}
