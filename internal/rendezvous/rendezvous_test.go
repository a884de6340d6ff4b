package rendezvous

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func itoaUID() string { return strconv.Itoa(os.Getuid()) }

func TestResolveDirOverride(t *testing.T) {
	dir, err := ResolveDir("/explicit/path", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != "/explicit/path" {
		t.Errorf("dir = %q, want /explicit/path", dir)
	}
}

func TestResolveDirPrefersRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	dir, err := ResolveDir("", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join("/run/user/1000", "zsh-edit-select-"+itoaUID())
	if dir != want {
		t.Errorf("dir = %q, want %q", dir, want)
	}
}

func TestResolveDirFallsBackToHomeWhenNotPreferred(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err := ResolveDir("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(home, ".cache", "zsh-edit-select")
	if dir != want {
		t.Errorf("dir = %q, want %q", dir, want)
	}
}

func TestOpenCreatesDirWithRestrictedMode(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "zsh-edit-select")
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != dirMode {
		t.Errorf("dir mode = %v, want %v", info.Mode().Perm(), os.FileMode(dirMode))
	}
	if store.Dir() != dir {
		t.Errorf("store.Dir() = %q, want %q", store.Dir(), dir)
	}
}

func TestPublishWritesPrimaryThenSeq(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Publish([]byte("hello"), 42); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	primary, err := os.ReadFile(filepath.Join(store.Dir(), primaryFile))
	if err != nil {
		t.Fatalf("read primary: %v", err)
	}
	if string(primary) != "hello" {
		t.Errorf("primary = %q, want %q", primary, "hello")
	}

	seq, err := os.ReadFile(filepath.Join(store.Dir(), seqFile))
	if err != nil {
		t.Fatalf("read seq: %v", err)
	}
	if string(seq) != "42\n" {
		t.Errorf("seq = %q, want %q", seq, "42\n")
	}
}

func TestPublishTruncatesPreviousContent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Publish([]byte("a much longer first value"), 1); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := store.Publish([]byte("x"), 2); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	primary, err := os.ReadFile(filepath.Join(store.Dir(), primaryFile))
	if err != nil {
		t.Fatalf("read primary: %v", err)
	}
	if string(primary) != "x" {
		t.Errorf("primary = %q, want %q (stale bytes not truncated)", primary, "x")
	}
}

func TestWritePID(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.WritePID(1234); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(store.Dir(), pidFile))
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if string(data) != "1234\n" {
		t.Errorf("pid file = %q, want %q", data, "1234\n")
	}
}

func TestCleanupRemovesAllFiles(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Publish([]byte("x"), 1); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := store.WritePID(1); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	if err := store.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, name := range []string{primaryFile, seqFile, pidFile} {
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Cleanup", name)
		}
	}
}

func TestCleanupOnMissingFilesIsNotAnError(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Cleanup(); err != nil {
		t.Errorf("Cleanup on empty dir: %v", err)
	}
}
