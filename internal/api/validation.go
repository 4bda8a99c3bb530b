package api

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/transfa/user-service/internal/domain"
)

var errInvalidInput = errors.New("invalid input")

// isEmailShaped reports whether the username looks like a plain email address.
// Deliverability is not checked anywhere; this is a shape test only.
func isEmailShaped(username string) bool {
	addr, err := mail.ParseAddress(username)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Jane <jane@example.com>".
	return addr.Address == strings.TrimSpace(username)
}

func validateSignupRequest(req domain.SignupRequest) error {
	if !isEmailShaped(req.Username) {
		return errInvalidInput
	}
	if req.FirstName == "" || req.LastName == "" || req.Password == "" {
		return errInvalidInput
	}
	return nil
}

func validateSigninRequest(req domain.SigninRequest) error {
	if !isEmailShaped(req.Username) {
		return errInvalidInput
	}
	if req.Password == "" {
		return errInvalidInput
	}
	return nil
}

func validateUpdateRequest(req domain.UpdateUserRequest) error {
	// All fields are optional, but a supplied password must not be empty.
	if req.Password != nil && *req.Password == "" {
		return errInvalidInput
	}
	return nil
}
