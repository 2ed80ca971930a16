// Package storage implementa ports.FileStore sobre un directorio local.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Firmador-api/internal/application/ports"
	"github.com/jhoicas/Firmador-api/internal/domain"
)

var _ ports.FileStore = (*LocalStore)(nil)

// LocalStore guarda cada archivo bajo <dir>/<aaaa>/<mm>/<uuid><ext>.
// La ruta devuelta es relativa a dir y usa separador '/'.
type LocalStore struct {
	dir string
	now func() (int, int)
}

// NewLocalStore crea el directorio raíz si no existe.
func NewLocalStore(dir string, clock ports.Clock) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: crear directorio %s: %w", dir, err)
	}
	return &LocalStore{
		dir: dir,
		now: func() (int, int) {
			t := clock.Now()
			return t.Year(), int(t.Month())
		},
	}, nil
}

// Put escribe los bytes en un archivo nuevo. El nombre original solo aporta la extensión.
func (s *LocalStore) Put(ctx context.Context, name, contentType string, data []byte) (ports.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return ports.StoredFile{}, err
	}
	year, month := s.now()
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 {
		ext = ""
	}
	rel := path.Join(fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), uuid.NewString()+ext)

	full, err := s.resolve(rel)
	if err != nil {
		return ports.StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return ports.StoredFile{}, fmt.Errorf("storage: crear directorio: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return ports.StoredFile{}, fmt.Errorf("storage: escribir archivo: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return ports.StoredFile{}, fmt.Errorf("storage: renombrar archivo: %w", err)
	}
	return ports.StoredFile{Path: rel, ContentType: contentType, Size: int64(len(data))}, nil
}

// Get lee el archivo. Una ruta inexistente devuelve domain.ErrNotFound.
func (s *LocalStore) Get(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("storage: leer archivo: %w", err)
	}
	return data, nil
}

// Delete elimina el archivo; si ya no existe no es error.
func (s *LocalStore) Delete(ctx context.Context, rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: eliminar archivo: %w", err)
	}
	return nil
}

// resolve impide salir del directorio raíz con rutas relativas maliciosas.
func (s *LocalStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("storage: ruta vacía: %w", domain.ErrInvalidInput)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
