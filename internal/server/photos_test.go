package server

import (
	"bytes"
	"testing"
)

func TestPhotoStoreSaveAndRead(t *testing.T) {
	store := newPhotoStore(t.TempDir())
	image, err := decodeImageData(testPhotoData)
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	id, rel, err := store.Save("ABC123", image)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" || rel != "ABC123/"+id {
		t.Fatalf("unexpected storage reference id=%q rel=%q", id, rel)
	}
	data, err := store.Read(rel)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, image) {
		t.Fatal("read bytes differ from saved bytes")
	}
}

func TestPhotoStoreRejectsEmptyImage(t *testing.T) {
	store := newPhotoStore(t.TempDir())
	if _, _, err := store.Save("ABC123", nil); err == nil {
		t.Fatal("expected empty image to be rejected")
	}
}

func TestPhotoStoreReadRejectsTraversal(t *testing.T) {
	store := newPhotoStore(t.TempDir())
	for _, path := range []string{
		"../secret",
		"ABC123/../secret",
		"ABC123/..",
		`ABC123\..`,
		"ABC123",
		"a/b/c",
	} {
		if _, err := store.Read(path); err == nil {
			t.Errorf("expected %q to be rejected", path)
		}
	}
}

func TestDecodeImageData(t *testing.T) {
	if _, err := decodeImageData(""); err == nil {
		t.Fatal("expected empty data to be rejected")
	}
	if _, err := decodeImageData("data:image/png;base64,%%%"); err == nil {
		t.Fatal("expected malformed base64 to be rejected")
	}
	decoded, err := decodeImageData(testPhotoData)
	if err != nil {
		t.Fatalf("decode data url: %v", err)
	}
	if len(decoded) == 0 {
		t.Fatal("expected decoded bytes")
	}
}
