package crawler

import "testing"

// TestNormalize tests canonical URL rewriting.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "already canonical",
			in:   "https://example.com/docs",
			want: "https://example.com/docs",
		},
		{
			name: "fragment dropped",
			in:   "https://example.com/page#section-2",
			want: "https://example.com/page",
		},
		{
			name: "scheme and host lowercased",
			in:   "HTTPS://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "trailing slash trimmed",
			in:   "https://example.com/docs/",
			want: "https://example.com/docs",
		},
		{
			name: "repeated trailing slashes trimmed",
			in:   "https://example.com//",
			want: "https://example.com",
		},
		{
			name: "root and bare host collapse together",
			in:   "https://example.com/",
			want: "https://example.com",
		},
		{
			name: "interior slashes kept",
			in:   "https://example.com/a//b",
			want: "https://example.com/a//b",
		},
		{
			name: "query kept",
			in:   "https://example.com/page?tag=humor",
			want: "https://example.com/page?tag=humor",
		},
		{
			name: "port kept",
			in:   "http://Example.com:8080/x",
			want: "http://example.com:8080/x",
		},
		{
			name:    "relative url rejected",
			in:      "/docs/page",
			wantErr: true,
		},
		{
			name:    "empty url rejected",
			in:      "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestNormalizeEquivalentSpellings tests that spellings of the same
// page collapse to one frontier key.
func TestNormalizeEquivalentSpellings(t *testing.T) {
	t.Parallel()

	groups := [][]string{
		{"https://example.com", "https://example.com/", "https://example.com//", "HTTPS://EXAMPLE.COM/"},
		{"https://example.com/docs", "https://example.com/docs/", "https://example.com/docs#intro"},
	}

	for _, group := range groups {
		first, err := Normalize(group[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, spelling := range group[1:] {
			got, err := Normalize(spelling)
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", spelling, err)
			}
			if got != first {
				t.Errorf("expected %q to normalize to %q, got %q", spelling, first, got)
			}
		}
	}
}

// TestScopeAllows tests the crawl boundary.
func TestScopeAllows(t *testing.T) {
	t.Parallel()

	t.Run("host-rooted seed admits any path on the host", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		allowed := []string{
			"https://example.com",
			"https://example.com/page",
			"https://example.com/deep/nested/page",
		}
		for _, u := range allowed {
			if !scope.Allows(u) {
				t.Errorf("expected %q to be in scope", u)
			}
		}

		denied := []string{
			"https://other.com/page",
			"https://sub.example.com/page",
			"ftp://example.com/file",
		}
		for _, u := range denied {
			if scope.Allows(u) {
				t.Errorf("expected %q to be out of scope", u)
			}
		}
	})

	t.Run("path prefix is segment aligned", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("https://example.com/docs")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !scope.Allows("https://example.com/docs") {
			t.Error("expected the seed itself to be in scope")
		}
		if !scope.Allows("https://example.com/docs/intro") {
			t.Error("expected a nested page to be in scope")
		}
		if scope.Allows("https://example.com/docs-old/intro") {
			t.Error("expected a sibling prefix to be out of scope")
		}
		if scope.Allows("https://example.com/about") {
			t.Error("expected an unrelated path to be out of scope")
		}
	})

	t.Run("ports distinguish hosts", func(t *testing.T) {
		t.Parallel()

		scope, err := NewScope("http://example.com:8080")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !scope.Allows("http://example.com:8080/page") {
			t.Error("expected same host and port to be in scope")
		}
		if scope.Allows("http://example.com/page") {
			t.Error("expected a different port to be out of scope")
		}
	})

	t.Run("non-http seed rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewScope("ftp://example.com"); err == nil {
			t.Error("expected error for ftp seed")
		}
	})
}

// TestScopeCrawlable tests the extension filter.
func TestScopeCrawlable(t *testing.T) {
	t.Parallel()

	scope, err := NewScope("https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	crawlable := []string{
		"https://example.com/page",
		"https://example.com/page.html",
		"https://example.com/PAGE.HTM",
		"https://example.com/notes.txt",
	}
	for _, u := range crawlable {
		if !scope.Crawlable(u) {
			t.Errorf("expected %q to be crawlable", u)
		}
	}

	skipped := []string{
		"https://example.com/logo.png",
		"https://example.com/archive.zip",
		"https://example.com/style.css",
		"https://example.com/report.pdf",
	}
	for _, u := range skipped {
		if scope.Crawlable(u) {
			t.Errorf("expected %q to be skipped", u)
		}
	}
}
