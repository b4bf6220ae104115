package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/ranking"
	"github.com/openmotors/car-users-api/internal/service"
	"github.com/openmotors/car-users-api/internal/store"
)

// maxPhotoBytes caps photo upload size at 5 MiB.
const maxPhotoBytes = 5 << 20

// UserHandler handles user management API requests.
type UserHandler struct {
	userService service.UserService
	photoStore  store.PhotoStore
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler with the given dependencies.
func NewUserHandler(
	userService service.UserService,
	photoStore store.PhotoStore,
	logger *slog.Logger,
) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService: userService,
		photoStore:  photoStore,
		logger:      logger.With(slog.String("component", "user_handler")),
	}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		RespondWithDomainError(w, r, domain.ErrUserInvalidFields)
		return
	}

	user, err := h.userService.Create(r.Context(), req.ToDomain())
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// GetAll handles GET /api/users.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAll(r.Context())
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, users)
}

// GetByID handles GET /api/users/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Me handles GET /api/me, returning the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetByLogin(r.Context(), principal.Login)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	var req SaveUserRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		RespondWithDomainError(w, r, domain.ErrUserInvalidFields)
		return
	}

	user, err := h.userService.Update(r.Context(), id, req.ToDomain())
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrdered handles GET /api/users/ordered, returning all users ranked by
// aggregate usage.
func (h *UserHandler) GetOrdered(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAll(r.Context())
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	ordered := ranking.UsersByUsage(users)
	if ordered == nil {
		ordered = []domain.User{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ordered)
}

// UploadPhoto handles POST /api/users/{id}/photo.
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	// Existence check first so a bad id is reported as a missing user,
	// not a failed upload.
	if _, err := h.userService.GetByID(r.Context(), id); err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	file, header, err := openPhotoFile(r)
	if err != nil {
		RespondWithDomainError(w, r, domain.ErrUserInvalidPhoto)
		return
	}
	defer func() { _ = file.Close() }()

	contentType, ext, err := photoMediaType(header)
	if err != nil {
		RespondWithDomainError(w, r, domain.ErrUserInvalidPhoto)
		return
	}

	key := fmt.Sprintf("users/user_%d%s", id, ext)
	if err := h.photoStore.Put(r.Context(), key, contentType, file, header.Size); err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to store user photo",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		RespondWithDomainError(w, r, domain.ErrUserUploadFailed)
		return
	}

	user, err := h.userService.UpdatePhoto(r.Context(), id, "/api/users/"+strconv.FormatInt(id, 10)+"/photo")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// GetPhoto handles GET /api/users/{id}/photo, streaming the stored object.
func (h *UserHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	obj, err := h.photoStore.Get(r.Context(), fmt.Sprintf("users/user_%d.", id))
	if err != nil {
		if errors.Is(err, store.ErrPhotoNotFound) {
			RespondWithDomainError(w, r, domain.ErrUserNotFound)
			return
		}
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to fetch user photo",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		RespondWithDomainError(w, r, domain.ErrUserUploadFailed)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	servePhoto(w, r, obj, h.logger)
}

// openPhotoFile extracts the "file" part from a multipart upload, rejecting
// empty files.
func openPhotoFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		return nil, nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	if header.Size == 0 {
		_ = file.Close()
		return nil, nil, errors.New("empty file")
	}
	return file, header, nil
}

// photoMediaType returns the declared content type and a matching file
// extension, rejecting anything that is not an image.
func photoMediaType(header *multipart.FileHeader) (contentType, ext string, err error) {
	contentType = header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", errors.New("not an image")
	}

	ext = strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		// Fall back to the content-type subtype.
		ext = "." + strings.TrimPrefix(contentType, "image/")
	}
	return contentType, ext, nil
}

// servePhoto streams a stored photo object to the client.
func servePhoto(w http.ResponseWriter, r *http.Request, obj *store.PhotoObject, log *slog.Logger) {
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		logger.FromContextOrDefault(r.Context(), log).Error("failed to stream photo",
			slog.String("error", err.Error()),
			slog.String("key", obj.Key))
	}
}
