package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuth          = errors.New("authentication failed")
	ErrRegistration  = errors.New("registration failed")
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid status transition")
	ErrQuotaExceeded = errors.New("plan quota exceeded")
	ErrForbidden     = errors.New("access forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrRequestFailed = errors.New("request failed")
)

var (
	// ErrUserExists is the registration failure for a duplicate email.
	ErrUserExists = fmt.Errorf("%w: user already exists", ErrRegistration)
	// ErrAdminEmail rejects allow-listed emails on the email-only path.
	ErrAdminEmail = fmt.Errorf("%w: administrators must use password authentication", ErrRegistration)

	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrAssessmentNotFound = fmt.Errorf("assessment %w", ErrNotFound)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrNotAdministrator   = fmt.Errorf("%w: email is not an administrator", ErrAuth)
	ErrTokenRevoked       = fmt.Errorf("%w: token revoked", ErrAuth)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrAuth)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 6 characters", ErrRegistration)
)

// RequestFailedError is a non-2xx reply (or transport failure) from a remote
// collaborator. Detail carries the human-readable message from the error
// envelope and Code the machine-readable kind, when the peer sent one.
type RequestFailedError struct {
	Status int
	Detail string
	Code   string
}

func (e *RequestFailedError) Error() string {
	if e.Status == 0 {
		return "request failed: " + e.Detail
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Detail)
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// Unwrap exposes the sentinel named by Code so callers can branch with
// errors.Is on remote failures too.
func (e *RequestFailedError) Unwrap() error {
	return ErrorForCode(e.Code)
}

var codes = []struct {
	code string
	err  error
}{
	{"quota_exceeded", ErrQuotaExceeded},
	{"user_exists", ErrUserExists},
	{"registration", ErrRegistration},
	{"not_found", ErrNotFound},
	{"invalid_state", ErrInvalidState},
	{"forbidden", ErrForbidden},
	{"auth", ErrAuth},
	{"invalid_input", ErrInvalidInput},
}

// CodeOf names the most specific sentinel err matches, or "" for none.
func CodeOf(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// ErrorForCode is the inverse of CodeOf. Unknown codes yield nil.
func ErrorForCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// QuotaError explains which plan limit was hit.
type QuotaError struct {
	Tier     PlanTier
	Resource string // "assessments" or "storage"
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s limit reached for %s. Please upgrade your plan.", e.Resource, PlanFor(e.Tier).Name)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
