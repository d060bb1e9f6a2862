package cliconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcherAppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("dry_run = true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	applied := make(chan FileConfig, 1)
	w := NewWatcher(path, func(fc FileConfig) {
		select {
		case applied <- fc:
		default:
		}
	}, zerolog.Nop())
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if err := os.WriteFile(path, []byte("dry_run = false\nvip_names = [\"alice\"]\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case fc := <-applied:
		if fc.DryRun == nil || *fc.DryRun {
			t.Fatal("expected dry_run=false from reloaded file")
		}
		if len(fc.VIPNames) != 1 || fc.VIPNames[0] != "alice" {
			t.Fatalf("vip names: %v", fc.VIPNames)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not apply config change")
	}
}

func TestWatcherIgnoresMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent.toml"), func(FileConfig) {
		t.Fatal("apply must not fire for a missing file")
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	w.Stop()
}

func TestWatcherKeepsSettingsOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("dry_run = true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	applied := make(chan FileConfig, 1)
	w := NewWatcher(path, func(fc FileConfig) { applied <- fc }, zerolog.Nop())
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if err := os.WriteFile(path, []byte("dry_run = [broken"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case fc := <-applied:
		t.Fatalf("apply fired for unparseable file: %+v", fc)
	case <-time.After(300 * time.Millisecond):
	}
}
