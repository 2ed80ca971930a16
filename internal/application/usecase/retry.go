package usecase

import (
	"context"
	"errors"

	"github.com/jhoicas/Firmador-api/internal/domain"
)

// RetryOnConflict ejecuta fn y la reintenta una sola vez si falla con domain.ErrConflict
// (violación de unicidad, serialización o deadlock). El segundo fallo se devuelve tal cual.
func RetryOnConflict(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn()
}

// ResultLabel clasifica un error para etiquetas de métricas.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSignerNotReady):
		return "not_ready"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	}
	return "error"
}
