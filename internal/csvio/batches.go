package csvio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
)

// WriteBatches writes one encoded batch per line. The destination is
// replaced atomically, so a failed run never leaves a partial file.
func WriteBatches(path string, batches []model.EncodedBatch) error {
	lines := make([]string, len(batches))
	for i, b := range batches {
		lines[i] = b.String()
	}
	return writeFileAtomic(path, []byte(strings.Join(lines, "\n")))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", model.ErrIO, dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", model.ErrIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", model.ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", model.ErrIO, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", model.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", model.ErrIO, path, err)
	}
	committed = true
	return nil
}
