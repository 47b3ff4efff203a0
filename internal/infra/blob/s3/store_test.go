package s3

import (
	"bytes"
	"context"
	"dentalatlas/internal/blob/core"
	"io"
	"strings"
	"testing"
)

func TestNew_RequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected bucket required error")
	}
}

func TestOpenFromEnv_RequiresBucket(t *testing.T) {
	t.Setenv("DENTALATLAS_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("expected env bucket error")
	}
}

func TestMockStore_Lifecycle(t *testing.T) {
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver %q", store.Driver())
	}
	ctx := context.Background()
	body := []byte("image-bytes")
	obj, err := store.Put(ctx, "11-P-Mx-R-001.jpg", bytes.NewReader(body), core.PutOptions{ContentType: "image/jpeg", USID: "11-P-Mx-R-001"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Key != "11-P-Mx-R-001.jpg" || obj.Size != int64(len(body)) {
		t.Fatalf("object %+v", obj)
	}
	if obj.USID != "11-P-Mx-R-001" {
		t.Fatalf("usid not carried through metadata: %+v", obj)
	}
	if _, err := store.Put(ctx, "11-P-Mx-R-001.jpg", bytes.NewReader(body), core.PutOptions{}); err == nil {
		t.Fatal("second put on the same key must fail")
	}

	stat, err := store.Stat(ctx, "11-P-Mx-R-001.jpg")
	if err != nil || stat.ContentType != "image/jpeg" {
		t.Fatalf("stat: %v %+v", err, stat)
	}

	got, rc, err := store.Open(ctx, "11-P-Mx-R-001.jpg")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, body) {
		t.Fatalf("content mismatch: %q", data)
	}
	if got.Size != int64(len(body)) {
		t.Fatalf("size mismatch: %+v", got)
	}
}

func TestMockStore_ForRecord(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	for _, key := range []string{"11-P-Mx-R-001.jpg", "11-P-Mx-R-001_CBCT.zip", "11-P-Mx-R-0013.jpg"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	objects, err := store.ForRecord(ctx, "11-P-Mx-R-001")
	if err != nil {
		t.Fatalf("for record: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("objects = %d, want 2 (longer identifiers sharing the prefix excluded)", len(objects))
	}
	if objects[0].Key != "11-P-Mx-R-001.jpg" || objects[1].Key != "11-P-Mx-R-001_CBCT.zip" {
		t.Fatalf("keys %q %q", objects[0].Key, objects[1].Key)
	}
}

func TestMockStore_ResolveURL(t *testing.T) {
	store := NewMockForTests()
	url, err := store.ResolveURL(context.Background(), "key.png", 0)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.Contains(url, "key.png") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("presigned url %q", url)
	}
}
