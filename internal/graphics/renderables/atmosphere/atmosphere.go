// Package atmosphere draws the additive halo shell around the planet.
package atmosphere

import (
	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/preview"
	"mini-planet/internal/shading"
	"mini-planet/internal/surface"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const shellResolution = 48

// Atmosphere implements renderer.Renderable.
type Atmosphere struct {
	shader     *graphics.Shader
	vao        uint32
	vbo, ebo   uint32
	count      int32
	baseRadius float64
	Enabled    bool
}

func New() *Atmosphere {
	return &Atmosphere{Enabled: true}
}

func (a *Atmosphere) Init() error {
	var err error
	a.shader, err = graphics.LoadShader("atmosphere")
	return err
}

// build makes the shell for the given planet base radius.
func (a *Atmosphere) build(baseRadius float64) error {
	m, err := surface.Build(surface.Sphere, shellResolution, baseRadius*preview.AtmosphereScale)
	if err != nil {
		return err
	}
	a.release()
	pos := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		pos = append(pos, float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2]))
	}

	gl.GenVertexArrays(1, &a.vao)
	gl.BindVertexArray(a.vao)
	gl.GenBuffers(1, &a.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, a.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(pos)*4, gl.Ptr(pos), gl.STATIC_DRAW)
	gl.GenBuffers(1, &a.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, a.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	a.count = int32(len(m.Indices))
	a.baseRadius = baseRadius
	return nil
}

func (a *Atmosphere) Render(ctx renderer.RenderContext) {
	if !a.Enabled || ctx.Snapshot == nil || ctx.Wireframe {
		return
	}
	if br := ctx.Snapshot.Settings.Mesh.BaseRadius; a.vao == 0 || br != a.baseRadius {
		if err := a.build(br); err != nil {
			return
		}
	}

	a.shader.Use()
	a.shader.SetMat4("view", ctx.View)
	a.shader.SetMat4("projection", ctx.Proj)
	t := shading.AtmosphereTint
	a.shader.SetVec4("tint", mgl32.Vec4{float32(t[0]), float32(t[1]), float32(t[2]), float32(t[3])})

	// Back faces only, added on top without writing depth.
	gl.CullFace(gl.FRONT)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.DepthMask(false)

	gl.BindVertexArray(a.vao)
	gl.DrawElements(gl.TRIANGLES, a.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.CullFace(gl.BACK)
}

func (a *Atmosphere) release() {
	if a.vao != 0 {
		gl.DeleteVertexArrays(1, &a.vao)
		a.vao = 0
	}
	if a.vbo != 0 {
		gl.DeleteBuffers(1, &a.vbo)
		a.vbo = 0
	}
	if a.ebo != 0 {
		gl.DeleteBuffers(1, &a.ebo)
		a.ebo = 0
	}
}

func (a *Atmosphere) Dispose() {
	a.release()
	if a.shader != nil {
		a.shader.Delete()
	}
}
