package domain

import "errors"

// --- ERREURS DU DOMAINE ---
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidToken     = errors.New("invalid token")
	ErrPrincipalNoEmail = errors.New("principal has no email address")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrUserNotFound     = errors.New("user not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrNotYourPost      = errors.New("you are not authorized to delete this post")
	ErrEmptyPost        = errors.New("post must have content or an image")
	ErrEmptyComment     = errors.New("comment content cannot be empty")
	ErrSelfFollow       = errors.New("you cannot follow yourself")
	ErrConflict         = errors.New("uniqueness constraint violated")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Kind classe une erreur pour les adapters (gRPC, HTTP) et pour Result.
type Kind string

const (
	KindUnauthenticated     Kind = "UNAUTHENTICATED"
	KindNotFound            Kind = "NOT_FOUND"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindStoreUnavailable    Kind = "STORE_UNAVAILABLE"
	KindInternal            Kind = "INTERNAL"
)

// KindOf traduit une erreur (éventuellement wrappée) en Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrPrincipalNoEmail):
		return KindUnauthenticated
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPostNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotYourPost):
		return KindUnauthorized
	case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrEmptyComment), errors.Is(err, ErrSelfFollow), errors.Is(err, ErrInvalidEmail):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConstraintViolation
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	default:
		return KindInternal
	}
}
