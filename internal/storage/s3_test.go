package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/picshare/backend/internal/config"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.objects[r.URL.Path] = string(body)
	b.types[r.URL.Path] = r.Header.Get("Content-Type")
	b.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestSaveUploadsAndReturnsPublicURL(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	bucket := &fakeBucket{objects: map[string]string{}, types: map[string]string{}}
	server := httptest.NewServer(bucket)
	defer server.Close()

	store, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
		Bucket:        "images",
		Region:        "us-east-1",
		Endpoint:      server.URL,
		PublicBaseURL: "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	location, err := store.Save(context.Background(), "/posts/a.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if location != "https://cdn.example.com/posts/a.png" {
		t.Fatalf("expected cdn location got %s", location)
	}
	if got := bucket.objects["/images/posts/a.png"]; !strings.Contains(got, "png") {
		t.Fatalf("expected object uploaded got %q", got)
	}
	if got := bucket.types["/images/posts/a.png"]; got != "image/png" {
		t.Fatalf("expected image/png content type got %q", got)
	}

	if _, err := store.Save(context.Background(), "/", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for empty key")
	}
}
