package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/validation"
)

const (
	maxAvatarBytes     = 5 << 20
	maxAvatarFormBytes = maxAvatarBytes + 1<<20
	formFieldAvatar    = "avatar"
	avatarNotFound     = "Avatar not found"
)

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarHandler serves profile images from object storage.
type AvatarHandler struct {
	avatarService *services.AvatarService
}

// NewAvatarHandler constructs a handler. A nil service answers every request
// with 503.
func NewAvatarHandler(avatarService *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

// authorize runs the shared id, ownership and availability checks.
func (h *AvatarHandler) authorize(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, err)
		return 0, false
	}

	identity, ok := identityFrom(w, r)
	if !ok {
		return 0, false
	}
	if err := auth.CanManageAvatar(identity, id); err != nil {
		writePolicyError(w, err)
		return 0, false
	}

	if h.avatarService == nil {
		writeError(w, http.StatusServiceUnavailable, "Avatar storage is not configured")
		return 0, false
	}
	return id, true
}

func (h *AvatarHandler) PutAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarFormBytes)
	if err := r.ParseMultipartForm(maxAvatarFormBytes); err != nil {
		writeValidationError(w, validation.NewError(formFieldAvatar, "must be a multipart upload of at most 5MiB"))
		return
	}
	file, _, err := r.FormFile(formFieldAvatar)
	if err != nil {
		writeValidationError(w, validation.NewError(formFieldAvatar, "is required"))
		return
	}
	data, err := readFileLimited(file, maxAvatarBytes)
	_ = file.Close()
	if err != nil {
		writeValidationError(w, validation.NewError(formFieldAvatar, err.Error()))
		return
	}

	contentType := http.DetectContentType(data)
	if !allowedAvatarTypes[contentType] {
		writeValidationError(w, validation.NewError(formFieldAvatar, "must be a png, jpeg, gif or webp image"))
		return
	}

	if err := h.avatarService.Put(r.Context(), id, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}

	logging.FromContext(r.Context()).Info("avatar stored", "user_id", id, "bytes", len(data), "content_type", contentType)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Avatar updated successfully"})
}

func (h *AvatarHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	obj, err := h.avatarService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, avatarNotFound)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		logging.FromContext(r.Context()).Warn("stream avatar failed", "user_id", id, "err", err)
	}
}

func (h *AvatarHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.avatarService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, avatarNotFound)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Avatar deleted successfully"})
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
