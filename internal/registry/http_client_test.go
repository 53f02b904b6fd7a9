package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRegistryStub(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/assets/GEM-0":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"id": "GEM-0", "owner": "bob", "creator": "alice",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPClient(t *testing.T) {
	ts := newRegistryStub(t)
	c := NewHTTPClient(ts.URL + "/")

	owner, err := c.OwnerOf("GEM-0")
	if err != nil {
		t.Fatalf("OwnerOf error: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("owner got=%s want=bob", owner)
	}

	creator, err := c.CreatorOf("GEM-0")
	if err != nil {
		t.Fatalf("CreatorOf error: %v", err)
	}
	if creator != "alice" {
		t.Fatalf("creator got=%s want=alice", creator)
	}
}

func TestHTTPClient_NotFound(t *testing.T) {
	ts := newRegistryStub(t)
	c := NewHTTPClient(ts.URL)

	if _, err := c.OwnerOf("GEM-99"); err != ErrAssetNotFound {
		t.Fatalf("err got=%v want=%v", err, ErrAssetNotFound)
	}
}
