package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable covers every failure to produce a usable product table.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrConnectionFailure indicates the database could not be reached.
	ErrConnectionFailure = fmt.Errorf("%w: connection failure", ErrDataUnavailable)
	// ErrQueryFailure indicates the product query was rejected, e.g. a missing table.
	ErrQueryFailure = fmt.Errorf("%w: query failure", ErrDataUnavailable)
	// ErrMissingColumn is matched by every MissingColumnError.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidValue indicates a NULL or malformed value in a required column.
	ErrInvalidValue = errors.New("invalid value")
	// ErrEmptySelection indicates a selection matched no rows.
	ErrEmptySelection = errors.New("empty selection")
)

// MissingColumnError names a required column absent after normalization.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// Is lets errors.Is match ErrMissingColumn.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

func connectionFailure(table string, err error) error {
	return fmt.Errorf("catalog: connect for %s: %w: %w", table, ErrConnectionFailure, err)
}

func queryFailure(table string, err error) error {
	return fmt.Errorf("catalog: query %s: %w: %w", table, ErrQueryFailure, err)
}

// interrupted wraps failures caused by the caller's context, which are
// neither connection nor query failures. It returns nil for any other error.
func interrupted(ctx context.Context, table string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("catalog: load %s: %w", table, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("catalog: load %s: %w: %w", table, ctxErr, err)
	}
	return nil
}
