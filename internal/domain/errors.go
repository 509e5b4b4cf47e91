package domain

import "errors"

var (
	ErrUnauthenticated        = errors.New("user is not logged in")
	ErrStepOutOfOrder         = errors.New("please complete step 1 first")
	ErrMissingDraft           = errors.New("allocation draft is incomplete")
	ErrDraftNotFound          = errors.New("allocation draft not found")
	ErrMalformedOperatorToken = errors.New("operator must be given as \"Name (Code)\"")
	ErrEmptyCatalogSelection  = errors.New("no stations or operators are configured for your role")
	ErrStationNotInCatalog    = errors.New("station is not available for your role")
	ErrOperatorNotInCatalog   = errors.New("operator is not available for your role")
	ErrDuplicateEmail         = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrPersistenceFailure     = errors.New("failed to save allocation, please retry")
)
