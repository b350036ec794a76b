package core

import (
	"errors"
	"fmt"

	"spotifier-core/lib/platforms/spot/model"
)

var (
	ErrTransport            = errors.New("transport error")
	ErrTokenNotFound        = errors.New("login token not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrSessionExpired       = errors.New("session expired")
	ErrInvalidPeriod        = errors.New("invalid period")
	ErrTaskSubmissionFailed = errors.New("task submission failed")
	ErrTaskDeletionFailed   = errors.New("task deletion failed")

	ErrElementNotFound = model.ErrElementNotFound
	ErrParsing         = model.ErrParsing
)

// AuthError is returned when the credentials were posted but the identity
// provider did not redirect back to the portal. Body holds the page it
// answered with instead.
type AuthError struct {
	FinalUrl string
	Body     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: ended on %s", ErrAuthenticationFailed.Error(), e.FinalUrl)
}

func (e *AuthError) Unwrap() error {
	return ErrAuthenticationFailed
}
