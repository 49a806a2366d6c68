package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/supermarket-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
)

// UnknownProductError names the first item that is not in the catalog.
type UnknownProductError struct {
	Name string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product: %s", e.Name)
}

func unknownProduct(name string) error {
	cause := &UnknownProductError{Name: name}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, cause.Error()).
		WithDetails(map[string]any{"product": name})
}

// storeError marks a persistence failure as a dependency outage unless it is
// already typed. A unique violation means a concurrent request claimed the
// same id first.
func storeError(err error, step string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "purchase conflicted with a concurrent write, retry").
			WithDetails(map[string]any{"step": step})
	}
	return pkgerrors.Dependency(err, "purchase store unavailable").WithDetails(map[string]any{"step": step})
}

func failureReason(err error) string {
	var unknown *UnknownProductError
	switch {
	case errors.As(err, &unknown):
		return "unknown_product"
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return "validation"
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		return "conflict"
	case pkgerrors.IsCode(err, pkgerrors.CodeDependency):
		return "store_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}
