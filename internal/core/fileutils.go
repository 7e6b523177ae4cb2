package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic replaces the file at path with data.
// The content is written to a temporary file in the same directory, synced, and
// renamed over the target, so a failed write never leaves a partial file behind
// and the previous file stays as it was. The parent directory must already exist.
// A symlink at path is written through, and an existing file keeps its mode;
// perm applies to new files only.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	target, perm, err := resolveWriteTarget(path, perm)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat destination directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination parent %s is not a directory", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			LogDeferredError(func() error { return removeIfExists(tmpPath) })
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}

// resolveWriteTarget returns the file a write to path should replace, following
// symlinks, and the mode to give it
func resolveWriteTarget(path string, perm os.FileMode) (string, os.FileMode, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Dangling link: create the file it points to
		if link, linkErr := os.Readlink(path); linkErr == nil {
			if !filepath.IsAbs(link) {
				link = filepath.Join(filepath.Dir(path), link)
			}
			return link, perm, nil
		}
		return path, perm, nil
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%s is not a regular file", resolved)
	}
	return resolved, info.Mode().Perm(), nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
