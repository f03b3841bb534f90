package sync

import (
	"context"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func TestWatch_ImportsOnFileChange(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := testutil.TestCollection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan *models.ImportReport, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, col, vaultDir, ScopeTouched, testutil.Logger(),
			func(r *models.ImportReport) { reports <- r })
	}()

	// Give the watcher a moment to install before the first write.
	time.Sleep(200 * time.Millisecond)
	writeVaultFile(t, vaultDir, "watched.md", "Q: question\nA: answer\n\n")

	select {
	case r := <-reports:
		if r.Decks["Default"] != 1 {
			t.Errorf("report = %+v, want one Default note", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import report")
	}

	ids, err := col.NoteIDs("Default")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Errorf("collection holds %d notes, want 1", len(ids))
	}

	// The pass rewrote the file it read. The checksum snapshot must absorb
	// that rewrite instead of triggering another import.
	select {
	case r := <-reports:
		t.Fatalf("unexpected follow-up report: %+v", r)
	case <-time.After(3 * debounceInterval):
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := testutil.TestCollection(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, store, col, vaultDir, ScopeTouched, testutil.Logger(), nil)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
