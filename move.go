package aerialqc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// maxNameAttempts bounds the search for a free destination name.
const maxNameAttempts = 1000

// moveFile moves src into dir, keeping its base name. An existing file of the
// same name is never overwritten: a numeric suffix is added instead
// ("DJI_0001_1.JPG"). Returns the final destination path.
func moveFile(src, dir string) (string, error) {
	dst, err := freeName(dir, filepath.Base(src))
	if err != nil {
		return "", err
	}

	if err := os.Rename(src, dst); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
		}
		// Different filesystem: copy, then remove the source.
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
		}
		if err := os.Remove(src); err != nil {
			return dst, fmt.Errorf("remove %s after copy: %w", filepath.Base(src), err)
		}
	}
	return dst, nil
}

func freeName(dir, name string) (string, error) {
	dst := filepath.Join(dir, name)
	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		return dst, nil
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i < maxNameAttempts; i++ {
		dst = filepath.Join(dir, stem+"_"+strconv.Itoa(i)+ext)
		if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
			return dst, nil
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
