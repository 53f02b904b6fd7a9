package persistence

import (
	"os"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONFileStore_RoundTrip(t *testing.T) {
	svc := NewJSONFileService(t.TempDir())
	store := svc.NewStore("registry", "assets", "v1")

	var missing payload
	if err := store.Load(&missing); err != ErrNotExists {
		t.Fatalf("load before save err got=%v want=%v", err, ErrNotExists)
	}

	in := payload{Name: "gems", Count: 3}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var out payload
	if err := store.Load(&out); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip got=%+v want=%+v", out, in)
	}
}

func TestJSONFileStore_SameKeySameFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)

	if err := svc.NewStore("registry", "assets", "v1").Save(payload{Name: "a"}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var out payload
	if err := svc.NewStore("registry", "assets", "v1").Load(&out); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if out.Name != "a" {
		t.Fatalf("got=%+v", out)
	}

	// 文件名经过安全化，key 中的冒号不落盘
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	for _, e := range entries {
		for _, ch := range e.Name() {
			if ch == ':' {
				t.Fatalf("unsanitized file name: %s", e.Name())
			}
		}
	}
}

func TestMemoryStore(t *testing.T) {
	svc := NewMemoryService()
	store := svc.NewStore("p", "id", "tag")

	var missing payload
	if err := store.Load(&missing); err != ErrNotExists {
		t.Fatalf("err got=%v want=%v", err, ErrNotExists)
	}

	if err := store.Save(payload{Name: "x", Count: 1}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	var out payload
	if err := store.Load(&out); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if out.Name != "x" || out.Count != 1 {
		t.Fatalf("got=%+v", out)
	}

	// 同一 key 返回同一个存储实例
	var again payload
	if err := svc.NewStore("p", "id", "tag").Load(&again); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if again.Name != "x" {
		t.Fatalf("got=%+v", again)
	}
}
