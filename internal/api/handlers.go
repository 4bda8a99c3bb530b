/**
 * @description
 * This file defines the HTTP handlers for the user-service's API endpoints.
 * Handlers are responsible for parsing and validating requests, calling the
 * appropriate service method, and writing the response.
 *
 * @notes
 * - Duplicate usernames and malformed signup input share one client-visible
 *   message so the error text cannot be used to enumerate registered emails.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/transfa/user-service/internal/app"
	"github.com/transfa/user-service/internal/domain"
)

// Status 411 mirrors the public API contract of the original wallet backend;
// clients key off it for validation and duplicate-signup failures.
const statusInvalidInput = http.StatusLengthRequired

const (
	msgDuplicateOrInvalid = "Email already taken / Incorrect inputs"
	msgSigninFailed       = "Error while logging in"
	msgUpdateFailed       = "Error while updating information"
)

// UserHandler holds the dependencies for the user-facing endpoints.
type UserHandler struct {
	service *app.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *app.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Signup handles POST /signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, statusInvalidInput, msgDuplicateOrInvalid)
		return
	}
	if err := validateSignupRequest(req); err != nil {
		writeMessage(w, statusInvalidInput, msgDuplicateOrInvalid)
		return
	}

	token, err := h.service.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrDuplicateUsername) {
			writeMessage(w, statusInvalidInput, msgDuplicateOrInvalid)
			return
		}
		log.Printf("Signup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User created successfully",
		"token":   token,
	})
}

// Signin handles POST /signin.
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req domain.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, statusInvalidInput, msgDuplicateOrInvalid)
		return
	}
	if err := validateSigninRequest(req); err != nil {
		writeMessage(w, statusInvalidInput, msgDuplicateOrInvalid)
		return
	}

	token, err := h.service.Signin(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeMessage(w, statusInvalidInput, msgSigninFailed)
			return
		}
		log.Printf("Signin failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// UpdateUser handles PUT /. Only the authenticated caller's own record is
// touched; any identifier smuggled into the body is ignored.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, statusInvalidInput, msgUpdateFailed)
		return
	}
	if err := validateUpdateRequest(req); err != nil {
		writeMessage(w, statusInvalidInput, msgUpdateFailed)
		return
	}

	if err := h.service.UpdateProfile(r.Context(), userID, req); err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Update failed for user %s: %v", userID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Updated successfully"})
}

// ListUsers handles GET /bulk, the directory search.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := r.URL.Query().Get("filter")
	users, err := h.service.SearchUsers(r.Context(), userID, filter)
	if err != nil {
		log.Printf("Directory search failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// GetMe handles GET /me.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, app.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("Profile lookup failed for user %s: %v", userID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"firstName": user.FirstName})
}

// GetBalance handles GET /balance.
func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	account, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, app.ErrAccountNotFound) {
			writeMessage(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("Balance lookup failed for user %s: %v", userID, err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"balance": account.Balance})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
