package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Uploads stores files attached to records under Dir. Stored names are random
// so client file names never reach the filesystem.
type Uploads struct {
	Dir      string
	URLPath  string // public prefix, e.g. "/uploads/"
	MaxBytes int64
}

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// Save copies fh into Dir and returns its public path.
func (u Uploads) Save(fh *multipart.FileHeader) (string, error) {
	if u.MaxBytes > 0 && fh.Size > u.MaxBytes {
		return "", fmt.Errorf("upload %q: too large (%d bytes)", fh.Filename, fh.Size)
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("upload %q: extension not allowed", fh.Filename)
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return u.URLPath + name, nil
}
