package usecase

import (
	"github.com/rs/zerolog"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain/repository"
)

// Deps colaboradores compartidos por los casos de uso.
// Repos está atado al pool (lecturas); toda escritura pasa por Tx.
type Deps struct {
	Repos    repository.Set
	Tx       ports.TxRunner
	Files    ports.FileStore
	Notifier ports.Notifier
	Clock    ports.Clock
	Metrics  ports.Metrics
	Logger   zerolog.Logger
}

// WithDefaults completa los colaboradores opcionales con implementaciones vacías.
func (d Deps) WithDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = ports.NopMetrics{}
	}
	return d
}
