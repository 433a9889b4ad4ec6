package groupme

import (
	"errors"
	"fmt"
)

// ErrAuth indicates the access token was rejected by the API.
var ErrAuth = errors.New("groupme: invalid access token")

// NotFoundError indicates the authenticated user has no chat with the
// requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("groupme: no chat named %q", e.Name)
}

// APIError is any non-success response from the GroupMe API. It is not
// retried internally; callers see it immediately.
type APIError struct {
	Op     string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groupme: %s: unexpected status %d", e.Op, e.Status)
}
