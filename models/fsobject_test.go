package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFsObjectRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	obj, err := NewFsObject(path)
	if err != nil {
		t.Fatalf("NewFsObject failed: %v", err)
	}

	if obj.Path != path {
		t.Errorf("path = %q, want %q", obj.Path, path)
	}
	if obj.Hash == "" {
		t.Error("regular file snapshot is missing its hash")
	}
	if obj.Modified == 0 {
		t.Error("snapshot is missing its modified time")
	}

	same, err := NewFsObject(path)
	if err != nil {
		t.Fatalf("NewFsObject failed: %v", err)
	}
	if same.Hash != obj.Hash {
		t.Error("hash differs for unchanged content")
	}
}

func TestNewFsObjectDirectoryHasNoHash(t *testing.T) {
	obj, err := NewFsObject(t.TempDir())
	if err != nil {
		t.Fatalf("NewFsObject failed: %v", err)
	}
	if obj.Hash != "" {
		t.Errorf("directory snapshot has hash %q", obj.Hash)
	}
}

func TestNewFsObjectMissingPath(t *testing.T) {
	if _, err := NewFsObject(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
}
