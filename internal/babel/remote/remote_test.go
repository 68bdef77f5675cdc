package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/generator"
	"github.com/deidaraiorek/babelsearch/internal/babel/remote"
)

func TestCanonicalizePadsAndFilters(t *testing.T) {
	page := remote.Canonicalize("Hello, World! 123")
	if len(page) != generator.PageLength {
		t.Fatalf("len = %d, want %d", len(page), generator.PageLength)
	}
	if ok, reason := generator.ValidatePage(page); !ok {
		t.Fatalf("canonicalized page invalid: %s", reason)
	}
	if !strings.HasPrefix(page, "hello,") {
		t.Fatalf("expected lowercase prefix preserved, got %q", page[:10])
	}
}

func TestCanonicalizeTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", generator.PageLength*2)
	page := remote.Canonicalize(long)
	if len(page) != generator.PageLength {
		t.Fatalf("len = %d, want %d", len(page), generator.PageLength)
	}
}

func TestStaticPageSource(t *testing.T) {
	page := generator.AddressToPage("deadbeef")
	src := remote.StaticPageSource{Pages: map[string]string{"deadbeef": page}}

	got, err := src.FetchPage(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if got != page {
		t.Fatal("static source returned unexpected page")
	}

	if _, err := src.FetchPage(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestHTTPPageSourceFetchAndCanonicalize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/robots.txt") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("The quick brown fox jumps over the lazy dog."))
	}))
	defer srv.Close()

	src := remote.NewHTTPPageSource(srv.URL, "test-agent", 2*time.Second)
	page, err := src.FetchPage(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if ok, reason := generator.ValidatePage(page); !ok {
		t.Fatalf("fetched page invalid: %s", reason)
	}
}

func TestHTTPPageSourceNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := remote.NewHTTPPageSource(srv.URL, "test-agent", 2*time.Second)
	if _, err := src.FetchPage(context.Background(), "abc123"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHTTPPageSourceHonorsRobotsDisallow(t *testing.T) {
	var robotsHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/robots.txt") {
			robotsHits++
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("User-agent: *\nDisallow: /\n"))
			return
		}
		w.Write([]byte("should never be reached"))
	}))
	defer srv.Close()

	src := remote.NewHTTPPageSource(srv.URL, "test-agent", 2*time.Second)

	if _, err := src.FetchPage(context.Background(), "abc123"); err == nil {
		t.Fatal("expected robots.txt disallow to produce an error")
	}
	// A second fetch against the same host must reuse the cached robots
	// rule set rather than hitting the server again.
	if _, err := src.FetchPage(context.Background(), "def456"); err == nil {
		t.Fatal("expected robots.txt disallow to produce an error")
	}
	if robotsHits != 1 {
		t.Fatalf("robots.txt fetched %d times, want 1 (should be cached across requests to the same host)", robotsHits)
	}
}
