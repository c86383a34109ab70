// Package fsx copies files into a shared directory without ever
// overwriting an existing entry.
package fsx

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// テストで rename 失敗を再現できるよう差し替え可能にしている
var renameFunc = os.Rename

const maxClaimAttempts = 16

// PathTypeConflictError means dstDir is not a directory.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict: %q (want %s, got %s)", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CopyUnique copies src into dstDir under its base name. If that name is
// taken, a random prefix is added until a free name is found. The name is
// claimed with O_EXCL first, then the content is written to a temp file in
// dstDir and renamed over the claim, so concurrent callers never collide
// and readers never see a partial file under the final name.
func CopyUnique(src, dstDir string) (string, error) {
	fi, err := os.Stat(dstDir)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", &PathTypeConflictError{Path: dstDir, Want: "dir", Got: fi.Mode().Type().String()}
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return "", err
	}

	name := filepath.Base(src)
	dst, err := claim(dstDir, name)
	if err != nil {
		return "", err
	}

	if err := copyOver(in, srcInfo, dstDir, name, dst); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// claim reserves a free name in dir by creating an empty placeholder.
func claim(dir, name string) (string, error) {
	candidate := name
	for i := 0; i < maxClaimAttempts; i++ {
		p := filepath.Join(dir, candidate)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			if err := f.Close(); err != nil {
				_ = os.Remove(p)
				return "", err
			}
			return p, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		candidate = token + "_" + name
	}
	return "", errors.Errorf("no free name for %q in %s after %d attempts", name, dir, maxClaimAttempts)
}

func copyOver(in io.Reader, srcInfo os.FileInfo, dir, name, dst string) error {
	// 同じディレクトリに隠しファイルとして一時ファイルを作る
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return errors.Wrapf(err, "copy into %s", dir)
	}
	if err := tmp.Chmod(srcInfo.Mode().Perm()); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_ = os.Chtimes(tmpName, srcInfo.ModTime(), srcInfo.ModTime())

	// The placeholder at dst is ours; replacing it is not an overwrite.
	return renameFunc(tmpName, dst)
}

func randomToken() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b)), nil
}
