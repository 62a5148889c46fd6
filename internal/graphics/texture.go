package graphics

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sync"

	"terrainstream/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureExtensions are tried in order when looking up a texture file.
var TextureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

// errTextureNotFound is returned when no file exists for a texture name.
var errTextureNotFound = errors.New("texture file not found")

// Texture is an uploaded, repeating RGBA texture.
type Texture struct {
	name string
	ID   uint32
}

// Name implements world.Texture.
func (t *Texture) Name() string {
	return t.name
}

type decoded struct {
	img *image.NRGBA
	err error
}

// TextureLoader decodes terrain textures in the background and uploads them
// on the GL goroutine the first time they are asked for after decoding.
// Names without a file get a generated placeholder.
type TextureLoader struct {
	dir  string
	size int

	mu      sync.Mutex
	results map[string]decoded
	started map[string]struct{}

	// GL goroutine only.
	textures map[string]*Texture
}

// NewTextureLoader creates a loader reading <dir>/<name><ext>, scaled to
// size x size pixels.
func NewTextureLoader(dir string, size int) *TextureLoader {
	return &TextureLoader{
		dir:      dir,
		size:     max(size, 1),
		results:  make(map[string]decoded),
		started:  make(map[string]struct{}),
		textures: make(map[string]*Texture),
	}
}

var _ world.ResourceLoader = (*TextureLoader)(nil)

// Texture returns the uploaded texture, or false while it is still decoding.
func (l *TextureLoader) Texture(name string) (world.Texture, bool) {
	if t, ok := l.textures[name]; ok {
		return t, true
	}
	l.mu.Lock()
	res, done := l.results[name]
	if !done {
		if _, ok := l.started[name]; !ok {
			l.started[name] = struct{}{}
			go l.decode(name)
		}
	}
	l.mu.Unlock()
	if !done {
		return nil, false
	}

	img := res.img
	if res.err != nil {
		if !errors.Is(res.err, errTextureNotFound) {
			log.Printf("texture %s: %v", name, res.err)
		}
		img = Placeholder(name, l.size)
	}
	t := &Texture{name: name, ID: uploadRepeating(img)}
	l.textures[name] = t
	l.mu.Lock()
	delete(l.results, name)
	l.mu.Unlock()
	return t, true
}

func (l *TextureLoader) decode(name string) {
	img, err := LoadImage(l.dir, name, l.size)
	l.mu.Lock()
	l.results[name] = decoded{img: img, err: err}
	l.mu.Unlock()
}

// Delete releases every uploaded texture.
func (l *TextureLoader) Delete() {
	for name, t := range l.textures {
		gl.DeleteTextures(1, &t.ID)
		delete(l.textures, name)
	}
}

// LoadImage finds, decodes and scales the texture called name.
func LoadImage(dir, name string, size int) (*image.NRGBA, error) {
	if dir == "" {
		return nil, errTextureNotFound
	}
	for _, ext := range TextureExtensions {
		path := filepath.Join(dir, name+ext)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		src, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return scaleImage(src, size), nil
	}
	return nil, errTextureNotFound
}

func scaleImage(src image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if src.Bounds().Dx() == size && src.Bounds().Dy() == size {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

var placeholderColors = map[string]color.NRGBA{
	"sand":  {194, 178, 128, 255},
	"grass": {86, 125, 70, 255},
	"dirt":  {115, 85, 60, 255},
	"rock":  {120, 120, 115, 255},
	"snow":  {235, 240, 245, 255},
}

// Placeholder generates a speckled texture for name. Known terrain names
// get their natural colour, others a colour derived from the name.
func Placeholder(name string, size int) *image.NRGBA {
	h := fnv.New32a()
	h.Write([]byte(name))
	seed := h.Sum32()
	base, ok := placeholderColors[name]
	if !ok {
		base = color.NRGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 255}
	}
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			// Cheap integer hash for a stable speckle.
			n := uint32(x)*374761393 + uint32(y)*668265263 + seed
			n = (n ^ (n >> 13)) * 1274126177
			shade := int(n>>24)%25 - 12
			img.SetNRGBA(x, y, color.NRGBA{
				clampByte(int(base.R) + shade),
				clampByte(int(base.G) + shade),
				clampByte(int(base.B) + shade),
				255,
			})
		}
	}
	return img
}

func clampByte(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}

func uploadRepeating(img *image.NRGBA) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Rect.Dx()), int32(img.Rect.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

// uploadBlendMap uploads a per-corner weight image, sampled between texel
// centres.
func uploadBlendMap(img *image.NRGBA) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	// Rows of (width+1) RGBA texels are always 4-byte aligned.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(img.Rect.Dx()), int32(img.Rect.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}
