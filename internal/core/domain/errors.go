package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnnotation indicates the annotator could not process content.
	ErrAnnotation = errors.New("annotation failed")

	// ErrEmbedding indicates the embedder failed or returned an unusable vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrPersistence indicates the document store rejected or failed a write.
	ErrPersistence = errors.New("persistence failed")

	// ErrDuplicateID indicates a primary-key collision on insert.
	// It is a persistence error: errors.Is(err, ErrPersistence) also holds.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrIndex indicates the vector index failed.
	ErrIndex = errors.New("vector index failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or could not be reached at startup.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrCacheUnavailable indicates the result cache could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ErrorKind is the stable, transport-visible category of a failure.
type ErrorKind string

// Error kinds.
const (
	KindValidation  ErrorKind = "validation"
	KindAnnotation  ErrorKind = "annotation"
	KindEmbedding   ErrorKind = "embedding"
	KindPersistence ErrorKind = "persistence"
	KindDuplicateID ErrorKind = "duplicate_id"
	KindIndex       ErrorKind = "index"
	KindNotFound    ErrorKind = "not_found"
	KindInternal    ErrorKind = "internal"
)

// sentinel maps a kind to the sentinel it matches under errors.Is.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrInvalidInput
	case KindAnnotation:
		return ErrAnnotation
	case KindEmbedding:
		return ErrEmbedding
	case KindPersistence:
		return ErrPersistence
	case KindDuplicateID:
		return ErrDuplicateID
	case KindIndex:
		return ErrIndex
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Error is a typed failure carrying a kind, the failing operation and
// the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	} else if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind. Duplicate-id errors
// also match ErrPersistence.
func (e *Error) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	return e.Kind == KindDuplicateID && target == ErrPersistence
}

func newError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation wraps err as a validation failure.
func Validation(op string, err error) error { return newError(KindValidation, op, err) }

// AnnotationFailure wraps err as an annotator failure.
func AnnotationFailure(op string, err error) error { return newError(KindAnnotation, op, err) }

// Embedding wraps err as an embedder failure.
func Embedding(op string, err error) error { return newError(KindEmbedding, op, err) }

// Persistence wraps err as a document store failure.
func Persistence(op string, err error) error { return newError(KindPersistence, op, err) }

// DuplicateID wraps err as a primary-key collision.
func DuplicateID(op string, err error) error { return newError(KindDuplicateID, op, err) }

// Index wraps err as a vector index failure.
func Index(op string, err error) error { return newError(KindIndex, op, err) }

// NotFound reports that the entity identified by op does not exist.
func NotFound(op string) error { return newError(KindNotFound, op, nil) }

// KindOf returns the kind of err. Untyped errors that wrap a domain
// sentinel take that sentinel's kind; anything else is internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateID):
		return KindDuplicateID
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrEmbeddingUnavailable):
		return KindEmbedding
	case errors.Is(err, ErrIndex), errors.Is(err, ErrVectorIndexUnavailable):
		return KindIndex
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	}
	return KindInternal
}

// IsPermanent reports whether retrying err cannot succeed: bad input,
// duplicate keys, missing entities and caller cancellation.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch KindOf(err) {
	case KindValidation, KindDuplicateID, KindNotFound:
		return true
	}
	return false
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool {
	return err != nil && !IsPermanent(err)
}
