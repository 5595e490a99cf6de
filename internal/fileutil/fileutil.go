package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSameFile reports a copy whose source and destination are one file.
var ErrSameFile = errors.New("source and destination are the same file")

// CopyPreserving copies src to dst with SHA256 + size verification, then
// applies the source's permission bits and access/modification times to dst.
// A partial or mismatched dst is removed before returning an error. It
// returns the number of bytes written.
func CopyPreserving(src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() {
		return 0, fmt.Errorf("copy %s: not a regular file", src)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return 0, fmt.Errorf("copy %s: %w", src, ErrSameFile)
	}

	written, err := copyVerified(src, dst, srcInfo)
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}

	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("preserve mode: %w", err)
	}
	atime := accessTime(srcInfo)
	if err := os.Chtimes(dst, atime, srcInfo.ModTime()); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("preserve times: %w", err)
	}
	return written, nil
}

func copyVerified(src, dst string, srcInfo os.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return 0, err
	}
	if err := out.Sync(); err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}

	if written != srcInfo.Size() {
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return 0, fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory followed by a rename, replacing any existing file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
