package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("duplicate entity") // e.g., contest name already exists
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrStorage            = errors.New("storage failure") // change kept in memory, not persisted
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrSuperseded         = errors.New("superseded by a newer request")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrStorage) {
		// The in-memory collection holds the change; only persistence failed.
		return http.StatusInsufficientStorage
	}
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrSuperseded) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// IsSavedInSessionOnly reports whether err means the mutation was applied
// in memory but could not be persisted.
func IsSavedInSessionOnly(err error) bool {
	return errors.Is(err, ErrStorage)
}
