package handlers

import (
	"net/http"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/validation"
	"github.com/acquisitions/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const userNotFound = "User not found"

// UserHandler provides HTTP handlers for account management.
type UserHandler struct {
	userService   *services.UserService
	avatarService *services.AvatarService
}

// NewUserHandler constructs a handler. avatarService may be nil when no
// object storage is configured.
func NewUserHandler(userService *services.UserService, avatarService *services.AvatarService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
	}
}

// UserRouter registers account routes. Every route requires authentication.
func UserRouter(
	r chi.Router,
	users *UserHandler,
	avatars *AvatarHandler,
	authMiddleware func(http.Handler) http.Handler,
) {
	r.Use(authMiddleware)

	r.With(RequireRole(types.RoleAdmin)).Get("/", users.ListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", users.GetUser)
		r.Put("/", users.UpdateUser)
		r.Delete("/", users.DeleteUser)

		r.Route("/avatar", func(r chi.Router) {
			r.Put("/", avatars.PutAvatar)
			r.Get("/", avatars.GetAvatar)
			r.Delete("/", avatars.DeleteAvatar)
		})
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}
	if users == nil {
		users = []types.User{}
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Message: "Successfully retrieved users",
		Users:   users,
		Count:   len(users),
	})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := auth.CanViewUser(identity, id); err != nil {
		writePolicyError(w, err)
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "Successfully retrieved user", User: user})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	req.Name = trimPtr(req.Name)
	req.Email = lowerPtr(req.Email)
	if err := validation.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	update := req.toUpdate()
	if update.Empty() {
		writeValidationError(w, validation.NewError("body", "At least one field must be provided for update"))
		return
	}

	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := auth.CanUpdateUser(identity, id, update); err != nil {
		logging.FromContext(r.Context()).Warn("update denied",
			"user_id", identity.ID,
			"target_id", id,
			"err", err,
		)
		writePolicyError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "User updated successfully", User: user})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := auth.CanDeleteUser(identity, id); err != nil {
		writePolicyError(w, err)
		return
	}

	user, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, userNotFound)
		return
	}

	// The account is gone either way; a leftover avatar is only logged.
	if h.avatarService != nil {
		if err := h.avatarService.Delete(r.Context(), id); err != nil && services.KindOf(err) != services.KindNotFound {
			logging.FromContext(r.Context()).Error("delete avatar failed", "user_id", id, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "User deleted successfully", User: user})
}

// UpdateUserRequest is a partial update. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=2,max=255"`
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password" validate:"omitnil,min=6,max=128"`
	Role     *string `json:"role" validate:"omitnil,oneof=user admin"`
}

func (req UpdateUserRequest) toUpdate() types.UserUpdate {
	update := types.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := types.Role(*req.Role)
		update.Role = &role
	}
	return update
}

type UserResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type UserListResponse struct {
	Message string       `json:"message"`
	Users   []types.User `json:"users"`
	Count   int          `json:"count"`
}
