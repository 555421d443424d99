package handlers

import (
	"net/http"
	"strings"

	"github.com/acquisitions/apiserver/internal/auth"
	"github.com/acquisitions/apiserver/internal/logging"
	"github.com/acquisitions/apiserver/internal/services"
	"github.com/acquisitions/apiserver/internal/validation"
	"github.com/acquisitions/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// AuthHandler provides cookie-based authentication endpoints.
type AuthHandler struct {
	userService  *services.UserService
	tokens       *auth.TokenManager
	secureCookie bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenManager, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokens:       tokens,
		secureCookie: secureCookie,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/sign-up", handler.SignUp)
	r.Post("/sign-in", handler.SignIn)
	r.Post("/sign-out", handler.SignOut)
}

// SignUp registers an account and signs it in.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.userService.Create(r.Context(), types.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     types.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, r, err, "User not found")
		return
	}

	if !h.signIn(w, r, user) {
		return
	}
	logging.FromContext(r.Context()).Info("user registered", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, AuthResponse{Message: "User registered", User: summarize(user)})
}

// SignIn verifies credentials and sets the token cookie.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if services.KindOf(err) == services.KindInvalidCredentials {
			logging.FromContext(r.Context()).Warn("sign in rejected", "email", req.Email)
		}
		writeServiceError(w, r, err, "User not found")
		return
	}

	if !h.signIn(w, r, user) {
		return
	}
	logging.FromContext(r.Context()).Info("user signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, AuthResponse{Message: "User signed in", User: summarize(user)})
}

// SignOut clears the token cookie. Tokens are stateless, so an already
// issued token stays valid until it expires.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User signed out"})
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, user types.User) bool {
	token, err := h.tokens.Issue(types.Identity{ID: user.ID, Role: user.Role})
	if err != nil {
		logging.FromContext(r.Context()).Error("issue token failed", "user_id", user.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}
	setTokenCookie(w, token, h.tokens.TTL(), h.secureCookie)
	return true
}

type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the public view of a freshly authenticated account.
type UserSummary struct {
	ID    int        `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  types.Role `json:"role"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

func summarize(user types.User) UserSummary {
	return UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}
