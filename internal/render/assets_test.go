package render

import (
	"errors"
	"image"
	"testing"
)

func TestAssetsAddGetRemove(t *testing.T) {
	a := NewAssets(KeepImage)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	h, err := a.Add(img)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if h == 0 {
		t.Fatal("Add returned the zero handle")
	}
	got, ok := a.Get(h)
	if !ok || got != img {
		t.Fatalf("Get(%d) = %p, %v, want %p, true", h, got, ok, img)
	}

	h2, _ := a.Add(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if h2 == h {
		t.Errorf("handles not unique: %d", h)
	}
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
	if !a.Remove(h) || a.Remove(h) {
		t.Error("Remove should succeed once")
	}
}

func TestAssetsRemoveReleasesTexture(t *testing.T) {
	a := NewAssets(KeepImage)
	var released []*image.RGBA
	a.OnRemove(func(img *image.RGBA) { released = append(released, img) })

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	h, _ := a.Add(img)
	a.Remove(h)
	a.Remove(h)

	if len(released) != 1 || released[0] != img {
		t.Fatalf("released = %v, want exactly the removed image once", released)
	}
	if a.Len() != 0 {
		t.Errorf("Len = %d, want 0", a.Len())
	}
}

func TestAssetsRejectsNilAndConverterErrors(t *testing.T) {
	a := NewAssets(KeepImage)
	if _, err := a.Add(nil); !errors.Is(err, ErrNilImage) {
		t.Errorf("Add(nil) error = %v, want ErrNilImage", err)
	}

	bad := errors.New("gpu lost")
	b := NewAssets(func(*image.RGBA) (int, error) { return 0, bad })
	if _, err := b.Add(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, bad) {
		t.Errorf("Add error = %v, want wrapped converter error", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d after failed Add, want 0", b.Len())
	}
}
