package quota

import (
	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/internal/domain/entity"
)

// Kind tipo de recurso limitado por el plan.
type Kind string

const (
	KindDocument  Kind = "document"
	KindUser      Kind = "user"
	KindSignature Kind = "signature"
	KindBranch    Kind = "branch"
)

// Limit devuelve el techo del plan para el tipo de recurso.
func Limit(plan *entity.Plan, kind Kind) int {
	switch kind {
	case KindDocument:
		return plan.MaxDocuments
	case KindUser:
		return plan.MaxUsers
	case KindSignature:
		return plan.MaxSignatures
	case KindBranch:
		return plan.MaxBranches
	}
	return 0
}

// Check evalúa si crear un recurso más supera el plan.
// current es la cantidad de filas activas ya comprometidas para la empresa.
func Check(plan *entity.Plan, kind Kind, current int) error {
	if plan == nil {
		return domain.ErrNotFound
	}
	switch kind {
	case KindDocument, KindUser, KindSignature, KindBranch:
	default:
		return domain.ErrInvalidInput
	}
	limit := Limit(plan, kind)
	if limit == entity.Unlimited {
		return nil
	}
	if current+1 <= limit {
		return nil
	}
	return &domain.QuotaError{Kind: string(kind), Limit: limit}
}
