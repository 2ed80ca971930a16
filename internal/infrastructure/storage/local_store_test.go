package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Firmador-api/internal/domain"
	"github.com/jhoicas/Firmador-api/pkg/clock"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), clock.NewFixed(time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	f, err := s.Put(ctx, "Contrato.PDF", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Regexp(t, `^2026/03/[0-9a-f-]{36}\.pdf$`, f.Path, "la ruta debe agruparse por año/mes")

	data, err := s.Get(ctx, f.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	require.NoError(t, s.Delete(ctx, f.Path))
	_, err = s.Get(ctx, f.Path)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, f.Path), "borrar dos veces no es error")
}

func TestLocalStore_NoEscapaDelDirectorio(t *testing.T) {
	s := newStore(t)
	full, err := s.resolve("../../etc/passwd")
	require.NoError(t, err)
	assert.Contains(t, full, s.dir)

	_, err = s.resolve("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
