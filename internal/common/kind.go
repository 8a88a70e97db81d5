package common

import "errors"

// Kind groups errors by how a caller should react to them.
type Kind int

const (
	// KindInfrastructure is a store, signing or network failure; callers
	// may retry with backoff.
	KindInfrastructure Kind = iota
	// KindConflict is a client-fixable uniqueness conflict.
	KindConflict
	// KindUnauthorized means the caller has to authenticate again.
	KindUnauthorized
	// KindForbidden means the caller is authenticated but lacks the role.
	KindForbidden
	// KindValidation is malformed input rejected at the boundary.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	default:
		return "infrastructure"
	}
}

// KindOf classifies err. Unknown errors are infrastructure failures.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidRefreshToken),
		errors.Is(err, ErrRefreshTokenExpired),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrorUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrorForbidden):
		return KindForbidden
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInfrastructure
	}
}
