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

const atlasWidth = 512

// glyph is one character's placement in the atlas, in pixels.
type glyph struct {
	x, y, w, h         float32
	bearingX, bearingY float32
	advance            float32
}

// Atlas is a baked printable-ASCII glyph sheet.
type Atlas struct {
	Pix    *image.Alpha
	glyphs map[rune]glyph
	LineH  float32
}

// BuildAtlas bakes the Go Mono face at the given pixel size. It does not
// touch GL.
func BuildAtlas(pixels int) (*Atlas, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(pixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	rowH := face.Metrics().Height.Ceil() + 1
	rows := (95*(pixels+1))/atlasWidth + 2
	img := image.NewAlpha(image.Rect(0, 0, atlasWidth, rows*rowH))
	glyphs := make(map[rune]glyph, 95)

	x, y := 0, 0
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		g := glyph{
			w: float32(dr.Dx()), h: float32(dr.Dy()),
			bearingX: float32(dr.Min.X), bearingY: float32(-dr.Min.Y),
			advance: float32(math.Round(float64(advance) / 64)),
		}
		if dr.Dx() > 0 && dr.Dy() > 0 {
			if x+dr.Dx() > atlasWidth {
				x, y = 0, y+rowH
			}
			if y+dr.Dy() > img.Rect.Dy() {
				return nil, fmt.Errorf("font atlas overflow at %q", r)
			}
			draw.Draw(img, image.Rect(x, y, x+dr.Dx(), y+dr.Dy()), mask, maskp, draw.Src)
			g.x, g.y = float32(x), float32(y)
			x += dr.Dx() + 1
		}
		glyphs[r] = g
	}
	return &Atlas{Pix: img, glyphs: glyphs, LineH: float32(rowH)}, nil
}

// Quads returns two triangles per visible character, four floats per
// vertex (x, y, u, v). y is the baseline in a top-left origin space.
func (a *Atlas) Quads(text string, x, y float32) []float32 {
	aw := float32(a.Pix.Rect.Dx())
	ah := float32(a.Pix.Rect.Dy())
	out := make([]float32, 0, len(text)*24)
	space := a.glyphs[' ']
	for _, r := range text {
		g, ok := a.glyphs[r]
		if !ok {
			x += space.advance
			continue
		}
		if g.w > 0 {
			x0 := x + g.bearingX
			y0 := y - g.bearingY
			x1, y1 := x0+g.w, y0+g.h
			u0, v0 := g.x/aw, g.y/ah
			u1, v1 := (g.x+g.w)/aw, (g.y+g.h)/ah
			out = append(out,
				x0, y1, u0, v1,
				x0, y0, u0, v0,
				x1, y0, u1, v0,
				x0, y1, u0, v1,
				x1, y0, u1, v0,
				x1, y1, u1, v1,
			)
		}
		x += g.advance
	}
	return out
}

// TextRenderer draws atlas text in window pixel coordinates.
type TextRenderer struct {
	atlas      *Atlas
	shader     *Shader
	texture    uint32
	vao, vbo   uint32
	projection mgl32.Mat4
}

func NewTextRenderer(atlas *Atlas, width, height int) (*TextRenderer, error) {
	shader, err := LoadShader("font")
	if err != nil {
		return nil, err
	}
	tr := &TextRenderer{atlas: atlas, shader: shader}
	tr.SetViewport(width, height)

	gl.GenTextures(1, &tr.texture)
	gl.BindTexture(gl.TEXTURE_2D, tr.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	b := atlas.Pix.Rect
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(b.Dx()), int32(b.Dy()), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(atlas.Pix.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.GenVertexArrays(1, &tr.vao)
	gl.GenBuffers(1, &tr.vbo)
	gl.BindVertexArray(tr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	return tr, nil
}

func (tr *TextRenderer) SetViewport(width, height int) {
	tr.projection = mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
}

// RenderLines draws lines top to bottom starting at (x, y).
func (tr *TextRenderer) RenderLines(lines []string, x, y float32, color mgl32.Vec3) {
	var verts []float32
	for _, line := range lines {
		y += tr.atlas.LineH
		verts = append(verts, tr.atlas.Quads(line, x, y)...)
	}
	if len(verts) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	tr.shader.Use()
	tr.shader.SetVec3("textColor", color)
	tr.shader.SetMat4("projection", tr.projection)
	tr.shader.SetInt("text", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tr.texture)

	gl.BindVertexArray(tr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(verts)/4))
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)
}

func (tr *TextRenderer) Dispose() {
	gl.DeleteVertexArrays(1, &tr.vao)
	gl.DeleteBuffers(1, &tr.vbo)
	gl.DeleteTextures(1, &tr.texture)
	tr.shader.Delete()
}
