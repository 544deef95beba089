package amble

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatchReportsCreate tests that creating a file in a watched
// directory produces a create event.
func TestWatchReportsCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watch test in short mode")
	}

	root := t.TempDir()
	events := make(chan WatchResult, 16)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, WatchOptions{
			Events: []WatchEvent{EventCreate},
		}, func(ctx context.Context, result WatchResult) error {
			select {
			case events <- result:
			default:
			}
			return nil
		})
	}()

	// Give the watcher a moment to register before touching the tree.
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(root, "new.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case result := <-events:
		if result.Error != nil {
			t.Fatalf("unexpected watch error: %v", result.Error)
		}
		if result.Message.Event != EventCreate {
			t.Errorf("expected create event, got %s", result.Message.Event)
		}
		if result.Message.Path != target {
			t.Errorf("expected path %q, got %q", target, result.Message.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for create event")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
}

// TestWatchRecursivePrimesSubdirs tests that recursive mode sees events
// in pre-existing subdirectories.
func TestWatchRecursivePrimesSubdirs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping watch test in short mode")
	}

	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	events := make(chan WatchResult, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, root, WatchOptions{
			Events:    []WatchEvent{EventCreate},
			Recursive: true,
		}, func(ctx context.Context, result WatchResult) error {
			select {
			case events <- result:
			default:
			}
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(sub, "inner.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case result := <-events:
		if result.Error != nil {
			t.Fatalf("unexpected watch error: %v", result.Error)
		}
		if result.Message.Path != target {
			t.Errorf("expected path %q, got %q", target, result.Message.Path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event in subdirectory")
	}

	cancel()
	<-done
}
