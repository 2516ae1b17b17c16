package api

import (
	"errors"
	"fmt"
)

// CredentialError indicates the stored bearer token was rejected by the
// backend (401/403). Callers must treat it as "session expired" and
// force re-authentication; no other recovery is possible.
type CredentialError struct {
	Status int
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential rejected (%d): session expired", e.Status)
}

// APIError is any non-2xx response other than an authorization failure.
// It is surfaced to the user as a transient failure; local state is
// never mutated on its account.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Body)
}

// IsCredentialExpired reports whether err (or any error in its chain)
// is a CredentialError.
func IsCredentialExpired(err error) bool {
	var credErr *CredentialError
	return errors.As(err, &credErr)
}
