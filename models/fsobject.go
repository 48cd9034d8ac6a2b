package models

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
)

// FsObject is a point-in-time record of one filesystem entry, captured
// when a watched path reports a change. Hash is a hex-encoded blake3
// digest of the content and is only set for regular files.
type FsObject struct {
	Path     string
	Hash     string
	Created  int64
	Modified int64
	Uid      uint32
	Gid      uint32
	Mode     uint32
}

// MarshalZerologObject lets an FsObject be embedded in a structured log
// record.
func (o FsObject) MarshalZerologObject(e *zerolog.Event) {
	e.Str("path", o.Path).
		Str("hash", o.Hash).
		Int64("created", o.Created).
		Int64("modified", o.Modified).
		Uint32("uid", o.Uid).
		Uint32("gid", o.Gid).
		Uint32("mode", o.Mode)
}

func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
