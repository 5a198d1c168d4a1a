package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type note struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestDocumentStore(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewDocumentStore(filepath.Join(tempDir, "docs"))
	if err != nil {
		t.Fatalf("Failed to create DocumentStore: %v", err)
	}

	key := "session:tg/42"
	doc := note{Title: "Week one", Tags: []string{"cut", "high-protein"}}

	t.Run("Load-Missing", func(t *testing.T) {
		var got note
		if err := store.Load(key, &got); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Save", func(t *testing.T) {
		if err := store.Save(key, doc); err != nil {
			t.Fatalf("Failed to save document: %v", err)
		}

		filePath := filepath.Join(tempDir, "docs", "session-tg_42.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
	})

	t.Run("Load", func(t *testing.T) {
		var got note
		if err := store.Load(key, &got); err != nil {
			t.Fatalf("Failed to load document: %v", err)
		}
		if diff := cmp.Diff(doc, got); diff != "" {
			t.Errorf("Loaded document mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		updated := note{Title: "Week two"}
		if err := store.Save(key, updated); err != nil {
			t.Fatalf("Failed to overwrite document: %v", err)
		}
		var got note
		if err := store.Load(key, &got); err != nil {
			t.Fatalf("Failed to load document: %v", err)
		}
		if got.Title != "Week two" {
			t.Errorf("Expected overwritten title, got %q", got.Title)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		if err := store.Save("other", note{}); err != nil {
			t.Fatalf("Failed to save document: %v", err)
		}
		keys, err := store.Keys()
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if diff := cmp.Diff([]string{"other", "session-tg_42"}, keys); diff != "" {
			t.Errorf("Keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(key); err != nil {
			t.Fatalf("Failed to delete document: %v", err)
		}
		var got note
		if err := store.Load(key, &got); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after Delete, got %v", err)
		}
		if err := store.Delete(key); err != nil {
			t.Errorf("Deleting a missing document should not fail, got %v", err)
		}
	})
}
