package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unlimited valor centinela de los límites del plan: 0 significa "sin límite".
const Unlimited = 0

// Plan define los techos numéricos de recursos de una empresa.
type Plan struct {
	ID            string
	Name          string
	MaxUsers      int
	MaxDocuments  int
	MaxSignatures int
	MaxBranches   int
	MonthlyPrice  decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
