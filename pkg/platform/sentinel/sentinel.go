package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so callers can branch with errors.Is without knowing the backend:
// - ErrNotFound: the dataset or project does not exist in the store
// - ErrConflict: a write collided with a uniqueness constraint
// - ErrUnavailable: the backing service is temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
