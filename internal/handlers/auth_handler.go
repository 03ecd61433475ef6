// File: internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/dtos"
	"github.com/agrisaarthi/agrisaarthi/internal/middleware"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
	"github.com/agrisaarthi/agrisaarthi/internal/services"
)

var (
	emailRegex        = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	passwordMinLength = 8
)

// AuthHandler holds the dependencies for authentication handlers.
type AuthHandler struct {
	UserService *services.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{UserService: service}
}

// Register handles new user signups.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequestDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	switch {
	case req.FullName == "":
		writeError(w, "Full name is required.", http.StatusBadRequest)
		return
	case !emailRegex.MatchString(req.Email):
		writeError(w, "Email format invalid.", http.StatusBadRequest)
		return
	case len(req.Password) < passwordMinLength:
		writeError(w, "Password must be at least 8 characters.", http.StatusBadRequest)
		return
	}

	u := &domain.User{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Language: req.Language,
		Region:   req.Region,
		Crops:    req.Crops,
	}
	created, err := h.UserService.Register(r.Context(), u, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, "Email already registered.", http.StatusConflict)
			return
		}
		log.Printf("Registration error: %v", err)
		writeError(w, "Could not create account", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, dtos.NewUserResponse(created))
}

// Login validates credentials and returns a token, also set as a cookie for
// browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequestDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, token, err := h.UserService.Login(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, "Invalid email or password.", http.StatusUnauthorized)
			return
		}
		log.Printf("Login error: %v", err)
		writeError(w, "Could not log in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, dtos.LoginResponseDTO{
		User:  dtos.NewUserResponse(u),
		Token: token,
	})
}

// Logout clears the auth cookie and the remembered login.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.UserService.ForgetLastUser(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeError(w, "User not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewUserResponse(u))
}

// UpdateProfile applies the editable profile fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.UpdateProfileRequestDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.UserService.UpdateProfile(r.Context(), userID, req.FullName, req.Phone, req.Language, req.Region, req.Crops)
	if err != nil {
		writeError(w, "Could not update profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewUserResponse(u))
}

// SearchUsers finds other accounts to start a chat with.
func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	users, err := h.UserService.Search(r.Context(), userID, query)
	if err != nil {
		writeError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	results := make([]dtos.UserResponseDTO, 0, len(users))
	for i := range users {
		results = append(results, dtos.NewUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, results)
}

// LastUser returns the remembered login for the client's "continue as" flow.
func (h *AuthHandler) LastUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"user_id": h.UserService.LastUser(r.Context())})
}
