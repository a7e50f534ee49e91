package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/organizator/organizator/pkg/audit"
	"github.com/organizator/organizator/pkg/auth"
	"github.com/organizator/organizator/pkg/config"
	"github.com/organizator/organizator/pkg/files"
	"github.com/organizator/organizator/pkg/httputil"
	"github.com/organizator/organizator/pkg/middleware"
	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/rbac"
	"github.com/organizator/organizator/pkg/storage"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to disk.
const maxUploadMemory = 32 << 20

// FileHandlers serves file upload and download.
type FileHandlers struct {
	logger  *observability.Logger
	metrics *observability.Metrics
	files   *files.Store
	blobs   storage.BlobStore
	gate    *rbac.Gate
	audit   audit.Logger
	policy  config.AccessPolicy
}

func NewFileHandlers(deps Deps) *FileHandlers {
	return &FileHandlers{
		logger:  deps.Logger,
		metrics: deps.Metrics,
		files:   deps.Files,
		blobs:   deps.Blobs,
		gate:    deps.Gate,
		audit:   deps.Audit,
		policy:  deps.Policy,
	}
}

// Upload handles POST /file. The multipart body carries the content in
// the "file" part; memo_group_id optionally attaches the file to a group
// the caller can write to. The blob is stored before the metadata row so
// a listed file always has content behind it.
func (h *FileHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httputil.WriteBadRequest(w, "malformed multipart body")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "missing form field: file")
		return
	}
	defer part.Close()

	var groupID *int
	if v := r.PostFormValue("memo_group_id"); v != "" {
		gid, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid memo_group_id")
			return
		}
		groupID = &gid
	}

	if groupID != nil {
		if err := h.gate.RequireMemoGroup(ctx, sec.Principal, *groupID, h.policy.FileWrite); err != nil {
			if isDenied(err) {
				h.recordDenial(r, sec.Principal, audit.ResourceTypeMemoGroup, strconv.Itoa(*groupID))
			}
			writeError(w, err)
			return
		}
	}

	id := uuid.New()
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.blobs.Put(ctx, id.String(), part, contentType); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.files.Insert(ctx, id, sec.Principal, header.Filename, groupID)
	if err != nil {
		// Roll back the orphaned blob; a failed delete only leaks storage.
		if derr := h.blobs.Delete(ctx, id.String()); derr != nil && h.logger != nil {
			h.logger.WithError(derr).WithField("file_id", id.String()).Warn("failed to delete orphaned blob")
		}
		writeError(w, err)
		return
	}

	h.recordUpload(r, sec.Principal, record)
	httputil.WriteCreated(w, record)
}

// Download handles GET /file/{id}. The grant check runs against the
// file's group before any content is opened.
func (h *FileHandlers) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sec, err := auth.FromContext(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	vars := httputil.GetPathVars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		httputil.WriteBadRequest(w, "invalid file id")
		return
	}

	if err := h.gate.RequireFile(ctx, sec.Principal, id, h.policy.FileRead); err != nil {
		if isDenied(err) {
			h.recordDenial(r, sec.Principal, audit.ResourceTypeFile, id.String())
		}
		writeError(w, err)
		return
	}

	record, err := h.files.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	blob, err := h.blobs.Get(ctx, id.String())
	if err != nil {
		writeError(w, err)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": record.Filename}))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, blob); err != nil && h.logger != nil {
		h.logger.WithError(err).WithField("file_id", id.String()).Warn("file download interrupted")
		return
	}
	h.recordRead(r, sec.Principal, id)
}

func (h *FileHandlers) recordUpload(r *http.Request, username string, record *files.Record) {
	event := audit.NewEvent(audit.EventTypeDataFileUpload, audit.EventStatusSuccess)
	event.Username = username
	event.ResourceType = audit.ResourceTypeFile
	event.ResourceID = record.ID.String()
	event.Message = record.Filename
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextRequestID(r)
	h.record(r, event)
}

func (h *FileHandlers) recordRead(r *http.Request, username string, id uuid.UUID) {
	event := audit.NewEvent(audit.EventTypeAccessFileRead, audit.EventStatusSuccess)
	event.Username = username
	event.ResourceType = audit.ResourceTypeFile
	event.ResourceID = id.String()
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextRequestID(r)
	h.record(r, event)
}

func (h *FileHandlers) recordDenial(r *http.Request, username string, resource audit.ResourceType, id string) {
	event := audit.NewEvent(audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied)
	event.Username = username
	event.ResourceType = resource
	event.ResourceID = id
	event.IPAddress = middleware.ClientIP(r)
	event.RequestID = contextRequestID(r)
	h.record(r, event)
}

func (h *FileHandlers) record(r *http.Request, event *audit.Event) {
	if h.metrics != nil {
		h.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType)).Inc()
	}
	if err := h.audit.Log(r.Context(), event); err != nil && h.logger != nil {
		h.logger.WithError(err).Warn("failed to record audit event")
	}
}
