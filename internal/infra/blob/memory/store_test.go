package memory

import (
	"bytes"
	"context"
	"corpgraph/internal/blob/core"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestStore_PutGetHeadListDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected not exist on head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected not exist on get, got %v", err)
	}
	md := map[string]string{"a": "1"}
	info, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	md["a"] = "mutated"
	if info.Size != 1 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	second, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{})
	if err != nil {
		t.Fatalf("replace put: %v", err)
	}
	if second.ETag == info.ETag || second.Size != 2 {
		t.Fatalf("expected new etag after replace: %+v", second)
	}
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "v2" {
		t.Fatalf("unexpected payload %q", b)
	}
	if list, err := store.List(ctx, "k"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, "zzz"); err != nil || len(list) != 0 {
		t.Fatalf("expected empty list for unmatched prefix")
	}
	if ok, err := store.Delete(ctx, "k"); err != nil || !ok {
		t.Fatalf("delete expected true")
	}
	if ok, _ := store.Delete(ctx, "k"); ok {
		t.Fatalf("second delete should be false")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStore_PutFailures(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	store.FailPut = true
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err == nil {
		t.Fatalf("expected refused write")
	}
	if _, err := store.Head(ctx, "k"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("refused write must not store anything")
	}
}
