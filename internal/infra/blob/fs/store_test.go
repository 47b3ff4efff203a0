package fs

import (
	"bytes"
	"context"
	"dentalatlas/internal/blob/core"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func putOpts(usid, contentType string) core.PutOptions {
	return core.PutOptions{USID: usid, ContentType: contentType}
}

func TestStore_PutOpenStat(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("driver %q", store.Driver())
	}
	ctx := context.Background()
	body := []byte("dicom-bytes")
	obj, err := store.Put(ctx, "48-P-Md-R-012_CBCT.zip", bytes.NewReader(body), putOpts("48-P-Md-R-012", "application/zip"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Size != int64(len(body)) || obj.Checksum == "" {
		t.Fatalf("object %+v", obj)
	}
	if obj.URL != "/media/48-P-Md-R-012_CBCT.zip" {
		t.Fatalf("url %q", obj.URL)
	}
	if obj.USID != "48-P-Md-R-012" {
		t.Fatalf("usid %q", obj.USID)
	}
	if _, err := store.Put(ctx, "48-P-Md-R-012_CBCT.zip", bytes.NewReader(body), putOpts("48-P-Md-R-012", "")); err == nil {
		t.Fatal("second put on the same key must fail")
	}

	got, rc, err := store.Open(ctx, "48-P-Md-R-012_CBCT.zip")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !bytes.Equal(data, body) {
		t.Fatalf("content mismatch: %v", err)
	}
	if got.ContentType != "application/zip" || got.USID != "48-P-Md-R-012" {
		t.Fatalf("description not round-tripped: %+v", got)
	}

	stat, err := store.Stat(ctx, "48-P-Md-R-012_CBCT.zip")
	if err != nil || stat.Size != int64(len(body)) || stat.Checksum != obj.Checksum {
		t.Fatalf("stat: %v %+v", err, stat)
	}
}

func TestStore_ForRecord(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	keys := []string{"11-P-Mx-R-001.png", "11-P-Mx-R-001_CBCT.dcm", "11-P-Mx-R-0012.png"}
	for _, key := range keys {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), putOpts("", "")); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	objects, err := store.ForRecord(ctx, "11-P-Mx-R-001")
	if err != nil {
		t.Fatalf("for record: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("objects = %d, want 2 (sidecars and other records excluded)", len(objects))
	}
	if objects[0].Key != "11-P-Mx-R-001.png" || objects[1].Key != "11-P-Mx-R-001_CBCT.dcm" {
		t.Fatalf("keys %q %q", objects[0].Key, objects[1].Key)
	}
	if objects, err := store.ForRecord(ctx, "75-D-Md-L-042"); err != nil || len(objects) != 0 {
		t.Fatalf("unrelated record: %v %d", err, len(objects))
	}
}

func TestCheckKey(t *testing.T) {
	bad := []string{"", "  ", "../escape", "a/b", `a\b`, "/abs", "x..y"}
	for _, key := range bad {
		if err := checkKey(key); err == nil {
			t.Fatalf("expected key rejection for %q", key)
		}
	}
	if err := checkKey("36-P-Md-L-007.png"); err != nil {
		t.Fatalf("key rejected: %v", err)
	}
}

func TestStore_ResolveURL(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	url, err := store.ResolveURL(context.Background(), "36-P-Md-L-007.png", 0)
	if err != nil || url != "/media/36-P-Md-L-007.png" {
		t.Fatalf("resolve: %q %v", url, err)
	}
	if _, err := store.ResolveURL(context.Background(), "../etc/passwd", 0); err == nil {
		t.Fatal("expected rejection for traversal key")
	}
}

func TestStore_MissingAndCorrupt(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, _, err := store.Open(ctx, "missing.png"); err == nil {
		t.Fatal("expected open error")
	}
	if _, err := store.Stat(ctx, "missing.png"); err == nil {
		t.Fatal("expected stat error")
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "bad.png"+sidecarSuffix), []byte("{"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	if _, err := store.Stat(ctx, "bad.png"); err == nil {
		t.Fatal("expected corrupt sidecar error")
	}
}
