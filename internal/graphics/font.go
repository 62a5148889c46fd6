package graphics

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontCharacter describes a single character's placement and metrics within the atlas
type FontCharacter struct {
	// Top-left of the glyph in the atlas, in pixels.
	AtlasX, AtlasY float32
	Width, Height  float32
	// Offset from the pen position on the baseline.
	BearingX, BearingY float32
	Advance            int
}

// GlyphAtlas is a baked alpha atlas of the printable ASCII range.
type GlyphAtlas struct {
	Image      *image.Alpha
	Characters map[rune]FontCharacter
	LineHeight int
}

const atlasWidth = 512

// BakeGlyphs renders printable ASCII of a TrueType or OpenType font into a
// single-channel atlas. Nil fontData selects the built-in monospace font.
func BakeGlyphs(fontData []byte, pixels int) (*GlyphAtlas, error) {
	if fontData == nil {
		fontData = gomono.TTF
	}
	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(pixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer face.Close()

	const padding = 1
	type glyph struct {
		r       rune
		dr      image.Rectangle
		mask    image.Image
		maskp   image.Point
		advance fixed.Int26_6
	}
	var glyphs []glyph
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		glyphs = append(glyphs, glyph{r, dr, mask, maskp, advance})
	}

	// Row packing: measure first so the atlas height is known.
	x, y, rowH := 0, 0, 0
	place := make([]image.Point, len(glyphs))
	for i, g := range glyphs {
		gw, gh := g.dr.Dx(), g.dr.Dy()
		if x+gw > atlasWidth {
			x, y, rowH = 0, y+rowH+padding, 0
		}
		place[i] = image.Pt(x, y)
		x += gw + padding
		rowH = max(rowH, gh)
	}
	height := 1
	for height < y+rowH {
		height <<= 1
	}

	atlas := &GlyphAtlas{
		Image:      image.NewAlpha(image.Rect(0, 0, atlasWidth, height)),
		Characters: make(map[rune]FontCharacter, len(glyphs)),
		LineHeight: face.Metrics().Height.Ceil(),
	}
	for i, g := range glyphs {
		p := place[i]
		gw, gh := g.dr.Dx(), g.dr.Dy()
		if gw > 0 && gh > 0 {
			draw.Draw(atlas.Image, image.Rect(p.X, p.Y, p.X+gw, p.Y+gh), g.mask, g.maskp, draw.Src)
		}
		atlas.Characters[g.r] = FontCharacter{
			AtlasX:   float32(p.X),
			AtlasY:   float32(p.Y),
			Width:    float32(gw),
			Height:   float32(gh),
			BearingX: float32(g.dr.Min.X),
			BearingY: float32(-g.dr.Min.Y),
			Advance:  int(math.Round(float64(g.advance) / 64.0)),
		}
	}
	return atlas, nil
}

// Measure returns the pixel width of text at the given scale.
func (a *GlyphAtlas) Measure(text string, scale float32) float32 {
	var width float32
	for _, r := range text {
		width += float32(a.advance(r)) * scale
	}
	return width
}

func (a *GlyphAtlas) advance(r rune) int {
	if fc, ok := a.Characters[r]; ok {
		return fc.Advance
	}
	return a.Characters[' '].Advance
}

// appendQuads appends two triangles per visible glyph, four floats per
// vertex: screen xy then atlas uv.
func (a *GlyphAtlas) appendQuads(dst []float32, text string, x, y, scale float32) []float32 {
	aw := float32(a.Image.Rect.Dx())
	ah := float32(a.Image.Rect.Dy())
	for _, r := range text {
		fc, ok := a.Characters[r]
		if ok && fc.Width > 0 {
			x0 := x + fc.BearingX*scale
			y0 := y - fc.BearingY*scale
			x1 := x0 + fc.Width*scale
			y1 := y0 + fc.Height*scale
			u0, v0 := fc.AtlasX/aw, fc.AtlasY/ah
			u1, v1 := (fc.AtlasX+fc.Width)/aw, (fc.AtlasY+fc.Height)/ah
			dst = append(dst,
				x0, y1, u0, v1,
				x0, y0, u0, v0,
				x1, y0, u1, v0,
				x0, y1, u0, v1,
				x1, y0, u1, v0,
				x1, y1, u1, v1,
			)
		}
		x += float32(a.advance(r)) * scale
	}
	return dst
}

// FontRenderer draws text in window pixel coordinates, origin top-left.
type FontRenderer struct {
	atlas      *GlyphAtlas
	texture    uint32
	shader     *Shader
	projection mgl32.Mat4
	vao, vbo   uint32
	scratch    []float32
}

// NewFontRenderer uploads the atlas and compiles the text shader.
func NewFontRenderer(atlas *GlyphAtlas, winWidth, winHeight int) (*FontRenderer, error) {
	if atlas == nil || len(atlas.Characters) == 0 {
		return nil, fmt.Errorf("invalid font atlas")
	}
	shader, err := LoadShader("font")
	if err != nil {
		return nil, err
	}
	fr := &FontRenderer{atlas: atlas, shader: shader}
	fr.Resize(winWidth, winHeight)

	gl.GenTextures(1, &fr.texture)
	gl.BindTexture(gl.TEXTURE_2D, fr.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	img := atlas.Image
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(img.Rect.Dx()), int32(img.Rect.Dy()), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	gl.GenVertexArrays(1, &fr.vao)
	gl.GenBuffers(1, &fr.vbo)
	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, 4*floatSize, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	return fr, nil
}

// Resize updates the pixel projection after a framebuffer change.
func (fr *FontRenderer) Resize(winWidth, winHeight int) {
	fr.projection = mgl32.Ortho(0, float32(winWidth), float32(winHeight), 0, 0, 1)
}

// RenderLines draws lines top-down starting at baseline (x, y).
func (fr *FontRenderer) RenderLines(lines []string, x, y, scale float32, color mgl32.Vec3) {
	if len(lines) == 0 {
		return
	}
	step := float32(fr.atlas.LineHeight) * scale
	fr.scratch = fr.scratch[:0]
	for _, line := range lines {
		fr.scratch = fr.atlas.appendQuads(fr.scratch, line, x, y, scale)
		y += step
	}
	if len(fr.scratch) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	fr.shader.Use()
	fr.shader.SetVec3("textColor", color)
	fr.shader.SetMat4("projection", fr.projection)
	fr.shader.SetInt("text", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fr.texture)

	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)
	size := len(fr.scratch) * floatSize
	// Orphan the previous frame's storage.
	gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.STREAM_DRAW)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(fr.scratch))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(fr.scratch)/4))
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

// Delete releases the GL objects.
func (fr *FontRenderer) Delete() {
	gl.DeleteTextures(1, &fr.texture)
	gl.DeleteVertexArrays(1, &fr.vao)
	gl.DeleteBuffers(1, &fr.vbo)
	fr.shader.Delete()
}
