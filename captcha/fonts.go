package captcha

import (
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinPrefix 内置字体路径前缀，例如 builtin:goregular
const BuiltinPrefix = "builtin:"

var builtinNames = []string{"goregular", "gobold", "goitalic", "gobolditalic", "gomedium", "gomono"}

var builtinTTF = map[string][]byte{
	"goregular":    goregular.TTF,
	"gobold":       gobold.TTF,
	"goitalic":     goitalic.TTF,
	"gobolditalic": gobolditalic.TTF,
	"gomedium":     gomedium.TTF,
	"gomono":       gomono.TTF,
}

// BuiltinFonts returns the default font pool.
func BuiltinFonts() []string {
	paths := make([]string, len(builtinNames))
	for i, name := range builtinNames {
		paths[i] = BuiltinPrefix + name
	}
	return paths
}

// FontRegistry 已解析字体的缓存，按路径索引。可并发使用。
type FontRegistry struct {
	mu    sync.RWMutex
	fonts map[string]*truetype.Font
}

func NewFontRegistry() *FontRegistry {
	return &FontRegistry{fonts: make(map[string]*truetype.Font)}
}

var defaultFonts = NewFontRegistry()

// Load parses the font at path once and caches it.
func (f *FontRegistry) Load(path string) (*truetype.Font, error) {
	f.mu.RLock()
	ft, ok := f.fonts[path]
	f.mu.RUnlock()
	if ok {
		return ft, nil
	}

	data, err := readFont(path)
	if err != nil {
		return nil, ErrFontLoad.WithDetail("path", path).WithInnerError(err)
	}
	ft, err = truetype.Parse(data)
	if err != nil {
		return nil, ErrFontLoad.WithDetail("path", path).WithInnerError(err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.fonts[path]; ok {
		return cached, nil
	}
	f.fonts[path] = ft
	return ft, nil
}

// Face returns a new face for path at size px. Faces are not safe for
// concurrent use, so callers get their own.
func (f *FontRegistry) Face(path string, size int) (font.Face, error) {
	ft, err := f.Load(path)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(ft, &truetype.Options{Size: float64(size), DPI: 72}), nil
}

func readFont(path string) ([]byte, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		data, found := builtinTTF[name]
		if !found {
			return nil, os.ErrNotExist
		}
		return data, nil
	}
	if path == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(path)
}
