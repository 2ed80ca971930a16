package ports

import "time"

// Clock fuente de tiempo inyectable para las comparaciones con expires_at.
type Clock interface {
	Now() time.Time
}
