package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/ranking"
	"github.com/openmotors/car-users-api/internal/service"
	"github.com/openmotors/car-users-api/internal/store"
)

// CarHandler handles car management API requests. Every route operates on
// the authenticated user's own fleet.
type CarHandler struct {
	carService service.CarService
	photoStore store.PhotoStore
	logger     *slog.Logger
}

// NewCarHandler creates a new CarHandler with the given dependencies.
func NewCarHandler(
	carService service.CarService,
	photoStore store.PhotoStore,
	logger *slog.Logger,
) *CarHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CarHandler{
		carService: carService,
		photoStore: photoStore,
		logger:     logger.With(slog.String("component", "car_handler")),
	}
}

// Create handles POST /api/cars, attaching the new car to the
// authenticated user.
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	var req SaveCarRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		RespondWithDomainError(w, r, domain.ErrCarInvalidFields)
		return
	}

	car := req.ToDomain()
	car.ID = 0
	car.OwnerID = principal.UserID

	created, err := h.carService.Create(r.Context(), car)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// GetAll handles GET /api/cars, listing the authenticated user's cars.
func (h *CarHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	cars, err := h.carService.GetByOwner(r.Context(), principal.UserID)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	if cars == nil {
		cars = []domain.Car{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cars)
}

// GetByID handles GET /api/cars/{id}. Viewing a car counts as one use, so
// the returned car already carries the incremented counter.
func (h *CarHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	id, err := getPathCarID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	car, err := h.carService.GetByID(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	if car.OwnerID != principal.UserID {
		RespondWithDomainError(w, r, domain.ErrCarNotFound)
		return
	}

	car, err = h.carService.TouchUsage(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, car)
}

// Update handles PUT /api/cars/{id}.
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	id, err := getPathCarID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	var req SaveCarRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		RespondWithDomainError(w, r, domain.ErrCarInvalidFields)
		return
	}

	car, err := h.carService.Update(r.Context(), id, principal.UserID, req.ToDomain())
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, car)
}

// Delete handles DELETE /api/cars/{id}.
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	id, err := getPathCarID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	car, err := h.carService.GetByID(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	if car.OwnerID != principal.UserID {
		RespondWithDomainError(w, r, domain.ErrCarNotFound)
		return
	}

	if err := h.carService.Delete(r.Context(), id); err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOrdered handles GET /api/cars/ordered, returning the authenticated
// user's cars ranked by usage.
func (h *CarHandler) GetOrdered(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	cars, err := h.carService.GetByOwner(r.Context(), principal.UserID)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	ordered := ranking.CarsByUsage(cars)
	if ordered == nil {
		ordered = []domain.Car{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ordered)
}

// UploadPhoto handles POST /api/cars/{id}/photo.
func (h *CarHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r)
	if !ok {
		RespondWithDomainError(w, r, domain.ErrCarUnauthorized)
		return
	}

	id, err := getPathCarID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	car, err := h.carService.GetByID(r.Context(), id)
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	if car.OwnerID != principal.UserID {
		RespondWithDomainError(w, r, domain.ErrCarNotFound)
		return
	}

	file, header, err := openPhotoFile(r)
	if err != nil {
		RespondWithDomainError(w, r, domain.ErrCarInvalidPhoto)
		return
	}
	defer func() { _ = file.Close() }()

	contentType, ext, err := photoMediaType(header)
	if err != nil {
		RespondWithDomainError(w, r, domain.ErrCarInvalidPhoto)
		return
	}

	key := fmt.Sprintf("cars/car_%d%s", id, ext)
	if err := h.photoStore.Put(r.Context(), key, contentType, file, header.Size); err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to store car photo",
			slog.String("error", err.Error()),
			slog.Int64("car_id", id))
		RespondWithDomainError(w, r, domain.ErrCarUploadFailed)
		return
	}

	updated, err := h.carService.UpdatePhoto(r.Context(), id, "/api/cars/"+strconv.FormatInt(id, 10)+"/photo")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}

// GetPhoto handles GET /api/cars/{id}/photo, streaming the stored object.
func (h *CarHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := getPathCarID(r, "id")
	if err != nil {
		RespondWithDomainError(w, r, err)
		return
	}

	obj, err := h.photoStore.Get(r.Context(), fmt.Sprintf("cars/car_%d.", id))
	if err != nil {
		if errors.Is(err, store.ErrPhotoNotFound) {
			RespondWithDomainError(w, r, domain.ErrCarNotFound)
			return
		}
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to fetch car photo",
			slog.String("error", err.Error()),
			slog.Int64("car_id", id))
		RespondWithDomainError(w, r, domain.ErrCarUploadFailed)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	servePhoto(w, r, obj, h.logger)
}
