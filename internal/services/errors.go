package services

import "errors"

// Sentinel errors shared by the services. The global error handler maps these
// to HTTP status codes; services wrap them with fmt.Errorf("%w: ...") to add
// detail without losing the category.
var (
	// ErrNotFound is returned for dangling usernames, systems, planets and
	// comments. Distinct from ErrForbidden: a hidden record that exists but
	// belongs to somebody else is still reported as not found to avoid
	// leaking its existence.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a requester tries to mutate a resource
	// they do not own. No side effects have occurred when it is returned.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicate is returned when a uniqueness rule would be violated
	// (username, email, system name per owner, planet name per system).
	ErrDuplicate = errors.New("already exists")

	// ErrValidation is returned for rejected input (bad name, rating out of
	// range, oversized text, malformed email). The operation aborts before
	// any write.
	ErrValidation = errors.New("validation failed")

	// ErrBadCredentials is returned by Authenticate for an unknown username
	// or a wrong password, without distinguishing the two.
	ErrBadCredentials = errors.New("invalid credentials")
)
