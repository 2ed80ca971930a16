// Package clock implementaciones de la fuente de tiempo.
package clock

import (
	"sync"
	"time"
)

// System reloj real (UTC).
type System struct{}

// Now devuelve la hora actual en UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed reloj controlable para tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed crea un reloj detenido en t.
func NewFixed(t time.Time) *Fixed { return &Fixed{now: t} }

// Now devuelve el instante actual del reloj.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance adelanta el reloj.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
