package trajectory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// CompressFile gzips the file at path into path+".gz" and removes the
// original, for run-batch's end-of-run archival pass over a run directory
// full of .traj files. Grounded on resultsfile.Write's temp-file-then-
// rename shape: the .gz is built under a temp name in the same directory
// and renamed into place, so a crash mid-compress never leaves a truncated
// archive next to (or instead of) the original.
func CompressFile(path string) error {
	src, err := os.Open(path) //nolint:gosec // path is an operator-controlled run-directory file, not user input.
	if err != nil {
		return fmt.Errorf("trajectory: opening %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.CreateTemp(filepath.Dir(path), "archive-*.gz.tmp")
	if err != nil {
		return fmt.Errorf("trajectory: creating archive temp file: %w", err)
	}
	tmpName := dst.Name()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		_ = gz.Close()
		_ = dst.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("trajectory: compressing %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("trajectory: closing gzip stream: %w", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("trajectory: syncing archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("trajectory: closing archive: %w", err)
	}
	if err := os.Rename(tmpName, path+".gz"); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("trajectory: renaming archive into place: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("trajectory: removing uncompressed original: %w", err)
	}
	return nil
}
