package api

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/config"
	"github.com/organizator/organizator/pkg/files"
	"github.com/organizator/organizator/pkg/memo"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/session"
	"github.com/organizator/organizator/pkg/storage"
	"github.com/organizator/organizator/pkg/users"
)

type testEnv struct {
	server   *Server
	mock     sqlmock.Sqlmock
	sessions *session.Store
	blobs    storage.BlobStore
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := session.NewKey()
	require.NoError(t, err)
	sessions := session.NewStore(key, false)

	blobs, err := storage.NewBlobStore(storage.Config{
		Type:           "filesystem",
		FilesystemRoot: t.TempDir(),
	})
	require.NoError(t, err)

	verifier := auth.NewVerifier(2)

	deps := Deps{
		Logger:     observability.NewLogger(observability.ErrorLevel, io.Discard),
		Metrics:    observability.NewMetrics(nil),
		Sessions:   sessions,
		Verifier:   verifier,
		Users:      users.NewStore(db),
		Memos:      memo.NewStore(db),
		Files:      files.NewStore(db),
		Blobs:      blobs,
		Gate:       rbac.NewGate(rbac.NewEvaluator(rbac.NewStore(db)), nil),
		Policy:     config.DefaultAccessPolicy(),
		RootUserID: 1,
	}

	return &testEnv{
		server:   NewServer(deps),
		mock:     mock,
		sessions: sessions,
		blobs:    blobs,
		verifier: verifier,
	}
}

// asUser stamps the request with the proxy certificate header so the
// security middleware resolves the given principal.
func asUser(r *http.Request, username string) *http.Request {
	r.Header.Set("X-SSL-Client-S-DN", "CN="+username)
	return r
}

func formRequest(method, path string, form url.Values) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func (e *testEnv) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, r)
	return w
}

func errNoRows() error { return sql.ErrNoRows }
