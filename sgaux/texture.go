package sgaux

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register decoders for texture files.
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/soypat/shadergraph"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for texture files whose extension is not accepted.
var ErrUnsupportedFormat = errors.New("unsupported texture format")

// TextureExtensions lists the accepted texture file extensions in lower case.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

// IsTextureFile reports whether path has an accepted texture extension.
func IsTextureFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range TextureExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadImage decodes the texture file at path.
func LoadImage(path string) (image.Image, error) {
	if !IsTextureFile(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	img, _, err := image.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// TextureManager loads texture files into GPU textures and caches them by path.
// Loading never fails: errors are logged and yield handle 0, which samples as
// black in the generated shader. Safe for concurrent use.
type TextureManager struct {
	mu      sync.Mutex
	upload  func(image.Image) (uint32, error)
	release func(uint32)
	handles map[string]uint32
}

// NewTextureManager returns a TextureManager that creates textures with upload
// and frees them with release. release may be nil.
func NewTextureManager(upload func(image.Image) (uint32, error), release func(uint32)) *TextureManager {
	return &TextureManager{
		upload:  upload,
		release: release,
		handles: make(map[string]uint32),
	}
}

// Load returns the texture handle of the file at path, loading it on first use.
func (tm *TextureManager) Load(path string) uint32 {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if h, ok := tm.handles[path]; ok {
		return h
	}
	log := shadergraph.Logger()
	img, err := LoadImage(path)
	if err != nil {
		log.Error("loading texture", slog.String("path", path), slog.Any("err", err))
		return 0
	}
	h, err := tm.upload(img)
	if err != nil {
		log.Error("uploading texture", slog.String("path", path), slog.Any("err", err))
		return 0
	}
	tm.handles[path] = h
	log.Debug("texture loaded", slog.String("path", path), slog.Uint64("handle", uint64(h)))
	return h
}

// Bind loads every texture path referenced by the editor's texture and blend
// nodes and stores the handles in the editor. It returns the number of paths
// that failed to load.
func (tm *TextureManager) Bind(ed *shadergraph.Editor) (failed int) {
	for _, ui := range ed.Nodes() {
		var paths []string
		switch k := ui.Kind.(type) {
		case shadergraph.TextureKind:
			paths = []string{k.Path}
		case shadergraph.BlendKind:
			paths = []string{k.Path1, k.Path2}
		default:
			continue
		}
		for slot, path := range paths {
			if path == "" {
				continue
			}
			h := tm.Load(path)
			if h == 0 {
				failed++
			}
			ed.SetTexture(ui.ID, slot, h, path)
		}
	}
	return failed
}

// Close releases all loaded textures.
func (tm *TextureManager) Close() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for path, h := range tm.handles {
		if tm.release != nil {
			tm.release(h)
		}
		delete(tm.handles, path)
	}
}
