package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrQuotaExceeded          = errors.New("límite del plan alcanzado")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")
	ErrSignerNotReady         = errors.New("el firmante aún no tiene turno")
)

// QuotaError detalla qué límite del plan se alcanzó. errors.Is(err, ErrQuotaExceeded) es true.
type QuotaError struct {
	Kind  string
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %s (límite %d)", ErrQuotaExceeded.Error(), e.Kind, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// TransitionError describe una transición rechazada por una máquina de estados.
// Reason es opcional y explica la precondición que falló.
type TransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s %s -> %s", ErrInvalidStateTransition.Error(), e.Entity, e.From, e.To)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// NewTransitionError atajo para construir un TransitionError.
func NewTransitionError(entity, from, to, reason string) error {
	return &TransitionError{Entity: entity, From: from, To: to, Reason: reason}
}
