//go:build darwin || linux

package models

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// NewFsObject captures the current state of path. The entry may be
// racing the very change that triggered the snapshot, so a file that
// vanishes between stat and hash yields a snapshot without a hash rather
// than an error.
func NewFsObject(path string) (FsObject, error) {
	var stat unix.Stat_t

	err := unix.Lstat(path, &stat)
	if err != nil {
		return FsObject{}, fmt.Errorf("failed to stat path: %w", err)
	}

	created, _ := stat.Ctim.Unix()
	modified, _ := stat.Mtim.Unix()

	obj := FsObject{
		Path:     path,
		Created:  created,
		Modified: modified,
		Uid:      stat.Uid,
		Gid:      stat.Gid,
		Mode:     uint32(stat.Mode),
	}

	if stat.Mode&unix.S_IFMT == unix.S_IFREG {
		obj.Hash, err = hashFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return FsObject{}, err
		}
	}

	return obj, nil
}
