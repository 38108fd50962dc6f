package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Every engine operation fails with one of these. Handlers map them to HTTP
// statuses; anything wrapped in ErrUnavailable is safe for the caller to
// retry.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("temporarily unavailable")

	// ErrConsistency means a derived counter or acceptance flag was caught
	// out of step with its ledger. With correct locking this is unreachable.
	ErrConsistency = errors.New("consistency violation")
)

// ErrSelfVote is a Forbidden: users may not vote on their own answers.
var ErrSelfVote = fmt.Errorf("%w: cannot vote on your own answer", ErrForbidden)

// translate folds database-level failures into the engine taxonomy. Lock
// timeouts, deadlocks and serialization failures become ErrUnavailable so
// callers know a retry is safe; unique violations become ErrConflict.
func translate(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrConsistency):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		case "40001", "40P01", "55P03": // serialization, deadlock, lock timeout
			return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
		}
	}

	return err
}
