package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrBadPartSize = errors.New("archive: part size must be positive")

// PartFile is one on-disk part of a pre-split artifact. Identity and
// order travel with the part in every packet; receivers never infer
// them from filenames.
type PartFile struct {
	Index int // 1-based
	Name  string
	Path  string
	Size  int64
}

// Split cuts the file at path into fixed-size part files under destDir
// (the directory of path when destDir is empty). The final part may be
// short. A file smaller than partSize yields a single part referencing
// the original file unchanged.
func Split(path string, partSize int64, destDir string) ([]PartFile, error) {
	if partSize <= 0 {
		return nil, ErrBadPartSize
	}
	if destDir == "" {
		destDir = filepath.Dir(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}
	if info.Size() <= partSize {
		return []PartFile{{Index: 1, Name: filepath.Base(path), Path: path, Size: info.Size()}}, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}
	defer src.Close()

	var parts []PartFile
	for idx := 1; ; idx++ {
		name := fmt.Sprintf("%s.part%03d", filepath.Base(path), idx)
		partPath := filepath.Join(destDir, name)
		n, err := writePart(partPath, src, partSize)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", path, err)
		}
		if n == 0 {
			_ = os.Remove(partPath)
			break
		}
		parts = append(parts, PartFile{Index: idx, Name: name, Path: partPath, Size: n})
		if n < partSize {
			break
		}
	}
	return parts, nil
}

func writePart(path string, src io.Reader, limit int64) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}
