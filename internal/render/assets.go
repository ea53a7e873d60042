// Package render holds the engine-neutral side of drawing: a handle-based
// texture store and the sprite component that refers into it.
package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNilImage is returned when adding a nil buffer.
var ErrNilImage = errors.New("nil image")

// Handle refers to a texture in an Assets store. The zero Handle is invalid.
type Handle uint64

// Converter turns a pixel buffer into an engine texture.
type Converter[T any] func(img *image.RGBA) (T, error)

// KeepImage is a Converter that stores the buffer itself.
func KeepImage(img *image.RGBA) (*image.RGBA, error) { return img, nil }

// Assets owns converted textures by handle.
type Assets[T any] struct {
	convert Converter[T]
	release func(T)

	mu    sync.RWMutex
	next  Handle
	items map[Handle]T
}

// NewAssets creates an empty store using convert for every added buffer.
func NewAssets[T any](convert Converter[T]) *Assets[T] {
	return &Assets[T]{convert: convert, items: make(map[Handle]T)}
}

// Add converts img and stores the result under a new handle.
func (a *Assets[T]) Add(img *image.RGBA) (Handle, error) {
	if img == nil {
		return 0, ErrNilImage
	}
	tex, err := a.convert(img)
	if err != nil {
		return 0, fmt.Errorf("convert texture: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	a.items[a.next] = tex
	return a.next, nil
}

// OnRemove sets fn to be called with every texture dropped by Remove.
func (a *Assets[T]) OnRemove(fn func(T)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release = fn
}

// Get returns the texture stored under h.
func (a *Assets[T]) Get(h Handle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tex, ok := a.items[h]
	return tex, ok
}

// Remove drops the texture stored under h and releases it.
func (a *Assets[T]) Remove(h Handle) bool {
	a.mu.Lock()
	tex, ok := a.items[h]
	if ok {
		delete(a.items, h)
	}
	release := a.release
	a.mu.Unlock()

	if ok && release != nil {
		release(tex)
	}
	return ok
}

// Len returns the number of stored textures.
func (a *Assets[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Filter selects texture sampling.
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Sprite draws a texture centred on its entity's translation.
type Sprite struct {
	Texture    Handle
	CustomSize mgl64.Vec2 // world units; zero means texture size
	Filter     Filter
}
