package agent

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Leantar/fsobserver/modules/observer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestRunRejectsUnknownEventKind(t *testing.T) {
	a := New(Config{Watches: []WatchConfig{
		{Path: t.TempDir(), Events: []string{"EXPLODE"}},
	}})

	if err := a.Run(); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestRunFailsForMissingPath(t *testing.T) {
	a := New(Config{Watches: []WatchConfig{
		{Path: filepath.Join(t.TempDir(), "missing")},
	}})

	if err := a.Run(); err == nil {
		t.Fatal("expected error for missing path")
	}
	a.Stop()
}

func TestRunAndStop(t *testing.T) {
	a := New(Config{Watches: []WatchConfig{
		{Path: t.TempDir(), Events: []string{"CREATE", "DELETE"}},
	}})

	if err := a.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	a.Stop()
	a.Stop()
}

func TestReporterLogsEventWithSnapshot(t *testing.T) {
	var buf syncBuffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = old }()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := newReporter(WatchConfig{Path: dir, Snapshot: true})
	defer r.close()

	r.OnEvent(observer.Create, "f")

	deadline := time.Now().Add(2 * time.Second)
	for {
		out := buf.String()
		if strings.Contains(out, `"event":"CREATE"`) {
			if !strings.Contains(out, `"fsobject"`) || !strings.Contains(out, `"hash":"`) {
				t.Fatalf("log record is missing the snapshot: %s", out)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event logged, output: %q", out)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReporterSkipsSnapshotForDelete(t *testing.T) {
	var buf syncBuffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = old }()

	r := newReporter(WatchConfig{Path: t.TempDir(), Snapshot: true})
	defer r.close()

	r.OnEvent(observer.Delete, "gone")

	deadline := time.Now().Add(2 * time.Second)
	for {
		out := buf.String()
		if strings.Contains(out, `"event":"DELETE"`) {
			if strings.Contains(out, `"fsobject"`) {
				t.Fatalf("delete record carries a snapshot: %s", out)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event logged, output: %q", out)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
