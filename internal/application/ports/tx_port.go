package ports

import (
	"context"

	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error se hace rollback; si no, commit. Las lecturas con bloqueo (FOR UPDATE)
// dentro de fn son las que garantizan la atomicidad de cuotas y turnos de firma.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Set) error) error
}
