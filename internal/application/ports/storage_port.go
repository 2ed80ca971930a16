package ports

import "context"

// StoredFile referencia devuelta por el almacenamiento.
type StoredFile struct {
	Path        string
	ContentType string
	Size        int64
}

// FileStore almacenamiento externo de los bytes del documento. El núcleo solo guarda la ruta.
type FileStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (StoredFile, error)
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete limpia un archivo cuya transacción de alta falló.
	Delete(ctx context.Context, path string) error
}
