package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest("POST", "/file", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadFile(t *testing.T) {
	t.Run("stores blob and metadata", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectExec("INSERT INTO filestore").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := env.do(asUser(uploadRequest(t, "notes.txt", "file body", nil), "alice"))

		require.Equal(t, http.StatusCreated, w.Code)
		var record struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Filename string `json:"filename"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
		assert.Equal(t, "alice", record.Username)
		assert.Equal(t, "notes.txt", record.Filename)

		exists, err := env.blobs.Exists(context.Background(), record.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("group attachment requires a write grant", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(`SELECT u.username`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("bob"))
		env.mock.ExpectQuery(`SELECT a.access_level`).
			WithArgs(3, "mallory").
			WillReturnRows(sqlmock.NewRows([]string{"access_level"}).AddRow(1))

		w := env.do(asUser(uploadRequest(t, "notes.txt", "x", map[string]string{
			"memo_group_id": "3",
		}), "mallory"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		require.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("write grant admits the upload", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(`SELECT u.username`).
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("bob"))
		env.mock.ExpectQuery(`SELECT a.access_level`).
			WithArgs(3, "carol").
			WillReturnRows(sqlmock.NewRows([]string{"access_level"}).AddRow(2))
		env.mock.ExpectExec("INSERT INTO filestore").
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := env.do(asUser(uploadRequest(t, "notes.txt", "x", map[string]string{
			"memo_group_id": "3",
		}), "carol"))

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing file part is a client error", func(t *testing.T) {
		env := newTestEnv(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("memo_group_id", "3"))
		require.NoError(t, mw.Close())
		r := httptest.NewRequest("POST", "/file", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		w := env.do(asUser(r, "alice"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDownloadFile(t *testing.T) {
	t.Run("owner streams the content back", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()
		require.NoError(t, env.blobs.Put(context.Background(), id.String(),
			bytes.NewReader([]byte("file body")), "text/plain"))

		env.mock.ExpectQuery(`SELECT u.username, fs.memo_group_id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"username", "memo_group_id"}).
				AddRow("alice", nil))
		env.mock.ExpectQuery(`SELECT id, username, filename, memo_group_id, savetime`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "filename", "memo_group_id", "savetime"}).
				AddRow(id.String(), "alice", "notes.txt", nil, int64(1700000000000)))

		w := env.do(asUser(httptest.NewRequest("GET", "/file/"+id.String(), nil), "alice"))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "file body", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")
	})

	t.Run("stranger is denied without touching the blob", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()

		env.mock.ExpectQuery(`SELECT u.username, fs.memo_group_id`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"username", "memo_group_id"}).
				AddRow("alice", nil))

		w := env.do(asUser(httptest.NewRequest("GET", "/file/"+id.String(), nil), "mallory"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		require.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("unknown file reads as not found", func(t *testing.T) {
		env := newTestEnv(t)
		id := uuid.New()

		env.mock.ExpectQuery(`SELECT u.username, fs.memo_group_id`).
			WithArgs(id).
			WillReturnError(errNoRows())

		w := env.do(asUser(httptest.NewRequest("GET", "/file/"+id.String(), nil), "alice"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is a client error", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.do(asUser(httptest.NewRequest("GET", "/file/not-a-uuid", nil), "alice"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
