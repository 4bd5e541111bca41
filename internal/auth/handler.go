package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/prism-crm/internal/http/respond"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

// LoginRequest is the body of POST /auth/login. Pointers distinguish a missing
// field from an empty one.
type LoginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// User is the authenticated dashboard user.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is returned on a successful login. Token is only set when
// token signing is configured.
type LoginResponse struct {
	Success bool   `json:"success"`
	User    User   `json:"user"`
	Token   string `json:"token,omitempty"`
}

type authenticator interface {
	Authenticate(username, password string) error
}

// Handler serves the login endpoint.
type Handler struct {
	users  authenticator
	tokens *TokenIssuer
	logger *logging.Logger
}

// NewHandler creates a login handler. tokens may be nil.
func NewHandler(users authenticator, tokens *TokenIssuer, logger *logging.Logger) *Handler {
	if users == nil {
		panic("auth: user store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == nil || req.Password == nil {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	err := h.users.Authenticate(*req.Username, *req.Password)
	switch {
	case errors.Is(err, ErrUserStoreMissing):
		h.logger.Error("user store missing", "error", err)
		respond.Error(w, http.StatusInternalServerError, "User DB not initialized")
		return
	case errors.Is(err, ErrUserStoreCorrupt):
		h.logger.Error("user store unreadable", "error", err)
		respond.Error(w, http.StatusInternalServerError, "User DB corrupted")
		return
	case err != nil:
		h.logger.Warn("login rejected", "username", *req.Username)
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp := LoginResponse{
		Success: true,
		User:    User{Username: *req.Username, Role: RoleAdmin},
	}
	if h.tokens != nil {
		token, err := h.tokens.Issue(*req.Username, RoleAdmin)
		if err != nil {
			h.logger.Error("failed to issue dashboard token", "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to issue token")
			return
		}
		resp.Token = token
	}
	h.logger.Info("login succeeded", "username", *req.Username)
	respond.JSON(w, http.StatusOK, resp)
}
