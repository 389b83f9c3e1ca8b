package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func server(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/galileo/C0420361400R.cub":
			w.Write([]byte("Object = IsisCube"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	var hits int32
	srv := server(t, &hits)
	dir := t.TempDir()
	c := New(srv.URL+"/", dir)

	got, err := c.Fetch(context.Background(), "galileo/C0420361400R.cub")
	if err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}
	want := filepath.Join(dir, "galileo", "C0420361400R.cub")
	if got != want {
		t.Errorf("Expected path %s, got %s", want, got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("Failed to read downloaded file: %v", err)
	}
	if string(data) != "Object = IsisCube" {
		t.Errorf("Expected downloaded content, got %q", data)
	}
	if _, err := os.Stat(got + ".part"); !os.IsNotExist(err) {
		t.Errorf("Expected partial file to be renamed, got %v", err)
	}

	// Second call is served from the cache
	if _, err := c.Fetch(context.Background(), "galileo/C0420361400R.cub"); err != nil {
		t.Fatalf("Failed to fetch cached file: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected 1 request, got %d", n)
	}

	// Cache disabled
	c = New(srv.URL, dir, WithCache(false))
	if _, err := c.Fetch(context.Background(), "galileo/C0420361400R.cub"); err != nil {
		t.Fatalf("Failed to fetch without cache: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("Expected 2 requests, got %d", n)
	}
}

func TestFetchErrors(t *testing.T) {
	var hits int32
	srv := server(t, &hits)
	dir := t.TempDir()
	c := New(srv.URL, dir)

	if _, err := c.Fetch(context.Background(), "missing.cub"); !errors.Is(err, ErrStatus) {
		t.Errorf("Expected ErrStatus for 404, got %v", err)
	}
	for _, name := range []string{"missing.cub", "missing.cub.part"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected no %s for failed download, got %v", name, err)
		}
	}

	for _, name := range []string{"", "../escape.cub", "dir/"} {
		if _, err := c.Fetch(context.Background(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Expected ErrInvalidName for %q, got %v", name, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(srv.URL, dir, WithCache(false)).Fetch(ctx, "galileo/C0420361400R.cub"); err == nil {
		t.Error("Expected error for cancelled context, got nil")
	}
}
