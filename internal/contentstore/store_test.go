package contentstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestStore creates an artifact store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := New(dir, "http://example.com")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store, dir
}

// TestNew tests artifact directory creation.
func TestNew(t *testing.T) {
	t.Parallel()

	_, dir := setupTestStore(t)

	for _, sub := range []string{PagesDirName, TextDirName, WordsDirName} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil {
			t.Fatalf("expected %s directory: %v", sub, err)
		}
		if !info.IsDir() {
			t.Errorf("expected %s to be a directory", sub)
		}
	}
}

// TestSavePage tests raw body persistence and URL to path mapping.
func TestSavePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		wantFile string
	}{
		{
			name:     "scope root becomes index.html",
			url:      "http://example.com",
			wantFile: "index.html",
		},
		{
			name:     "extensionless page gains .html",
			url:      "http://example.com/page/2",
			wantFile: filepath.Join("page", "2.html"),
		},
		{
			name:     "existing extension kept",
			url:      "http://example.com/notes.txt",
			wantFile: "notes.txt",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, dir := setupTestStore(t)
			if err := store.SavePage(tt.url, []byte("<html>body</html>")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := os.ReadFile(filepath.Join(dir, PagesDirName, tt.wantFile))
			if err != nil {
				t.Fatalf("expected artifact at %s: %v", tt.wantFile, err)
			}
			if string(data) != "<html>body</html>" {
				t.Errorf("expected body preserved, got %q", data)
			}
		})
	}
}

// TestSaveText tests the extension swap for text artifacts.
func TestSaveText(t *testing.T) {
	t.Parallel()

	store, dir := setupTestStore(t)
	if err := store.SaveText("http://example.com/page/2", "visible words"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, TextDirName, "page", "2.txt"))
	if err != nil {
		t.Fatalf("expected text artifact: %v", err)
	}
	if string(data) != "visible words" {
		t.Errorf("expected text preserved, got %q", data)
	}
}

// TestSaveWordCounts tests the JSON tally artifact.
func TestSaveWordCounts(t *testing.T) {
	t.Parallel()

	store, dir := setupTestStore(t)
	counts := map[string]int{"apple": 3, "pear": 1}
	if err := store.SaveWordCounts("http://example.com/fruit.html", counts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, WordsDirName, "fruit.json"))
	if err != nil {
		t.Fatalf("expected words artifact: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid json: %v", err)
	}
	if decoded["apple"] != 3 || decoded["pear"] != 1 {
		t.Errorf("expected counts preserved, got %v", decoded)
	}
}

// TestOverwrite tests that a re-crawled page replaces its own artifact.
func TestOverwrite(t *testing.T) {
	t.Parallel()

	store, dir := setupTestStore(t)
	if err := store.SavePage("http://example.com/page", []byte("old")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SavePage("http://example.com/page", []byte("new")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, PagesDirName, "page.html"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("expected overwritten artifact, got %q", data)
	}

	count, err := store.PageCount()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 page artifact, got %d", count)
	}
}

// TestTraversalRejected tests that a URL cannot escape the artifact
// tree.
func TestTraversalRejected(t *testing.T) {
	t.Parallel()

	store, _ := setupTestStore(t)
	err := store.SavePage("http://example.com/../../etc/passwd", []byte("nope"))
	if err == nil {
		t.Fatal("expected traversal to be rejected")
	}
	if !strings.Contains(err.Error(), "outside the artifact directory") {
		t.Errorf("expected traversal error, got %v", err)
	}
}

// TestCounts tests artifact counting across the three trees.
func TestCounts(t *testing.T) {
	t.Parallel()

	store, _ := setupTestStore(t)

	urls := []string{
		"http://example.com",
		"http://example.com/a",
		"http://example.com/b/c",
	}
	for _, u := range urls {
		if err := store.SavePage(u, []byte("x")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.SaveText(u, "x"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.SaveWordCounts(urls[0], map[string]int{"x": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pages, err := store.PageCount()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	texts, err := store.TextCount()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	words, err := store.WordsCount()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pages != 3 || texts != 3 || words != 1 {
		t.Errorf("expected counts 3/3/1, got %d/%d/%d", pages, texts, words)
	}
}
