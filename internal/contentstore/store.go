package contentstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Artifact directory names under the working directory.
const (
	// PagesDirName holds raw response bodies.
	PagesDirName = "pages"

	// TextDirName holds extracted visible text.
	TextDirName = "text"

	// WordsDirName holds per-page word count JSON files.
	WordsDirName = "words"
)

// Store writes page artifacts into a working directory.
//
// Design decision: We mirror the site's URL structure on disk rather
// than hashing URLs into flat filenames because:
//  1. A human can find the artifact for a URL without tooling
//  2. Re-crawling a page overwrites its own files in place
//  3. The directory tree doubles as a site map
type Store struct {
	// pagesDir is where raw bodies land.
	pagesDir string

	// textDir is where extracted text lands.
	textDir string

	// wordsDir is where per-page tallies land.
	wordsDir string

	// prefix is the canonical crawl scope prefix stripped from URLs
	// when deriving file paths.
	prefix string
}

// New creates the artifact directories under workdir. prefix is the
// canonical scope prefix (scheme through seed path, no trailing slash)
// that page URLs are made relative to.
func New(workdir, prefix string) (*Store, error) {
	s := &Store{
		pagesDir: filepath.Join(workdir, PagesDirName),
		textDir:  filepath.Join(workdir, TextDirName),
		wordsDir: filepath.Join(workdir, WordsDirName),
		prefix:   prefix,
	}
	for _, dir := range []string{s.pagesDir, s.textDir, s.wordsDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	return s, nil
}

// SavePage writes the raw response body for pageURL.
func (s *Store) SavePage(pageURL string, body []byte) error {
	rel, err := s.relPath(pageURL)
	if err != nil {
		return err
	}
	return s.write(filepath.Join(s.pagesDir, rel), body)
}

// SaveText writes the extracted visible text for pageURL. The file
// keeps the page's relative path with a .txt extension.
func (s *Store) SaveText(pageURL string, text string) error {
	rel, err := s.relPath(pageURL)
	if err != nil {
		return err
	}
	rel = swapExt(rel, ".txt")
	return s.write(filepath.Join(s.textDir, rel), []byte(text))
}

// SaveWordCounts writes the page's word tally as JSON, keeping the
// page's relative path with a .json extension.
func (s *Store) SaveWordCounts(pageURL string, counts map[string]int) error {
	rel, err := s.relPath(pageURL)
	if err != nil {
		return err
	}
	rel = swapExt(rel, ".json")

	data, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode word counts: %w", err)
	}
	return s.write(filepath.Join(s.wordsDir, rel), append(data, '\n'))
}

// PageCount returns how many files exist under the pages directory.
func (s *Store) PageCount() (int, error) {
	return countFiles(s.pagesDir)
}

// TextCount returns how many files exist under the text directory.
func (s *Store) TextCount() (int, error) {
	return countFiles(s.textDir)
}

// WordsCount returns how many files exist under the words directory.
func (s *Store) WordsCount() (int, error) {
	return countFiles(s.wordsDir)
}

// write creates parent directories as needed and writes data.
func (s *Store) write(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0600); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// relPath maps a page URL to its artifact path relative to an artifact
// directory. The scope prefix is stripped, the scope root becomes
// index.html, and extensionless pages get an .html extension so every
// artifact has a recognizable type.
func (s *Store) relPath(pageURL string) (string, error) {
	rel := strings.TrimPrefix(pageURL, s.prefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "index.html"
	}
	if path.Ext(rel) == "" {
		rel += ".html"
	}

	rel = filepath.FromSlash(rel)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("url %q maps outside the artifact directory", pageURL)
	}
	return rel, nil
}

// swapExt replaces the final extension of an artifact path.
func swapExt(rel, ext string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ext
}

// countFiles counts regular files in a directory tree.
func countFiles(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count artifacts: %w", err)
	}
	return count, nil
}
