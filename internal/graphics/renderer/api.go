package renderer

import (
	"mini-planet/internal/graphics"
	"mini-planet/internal/planet"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderContext provides shared context for all renderables
type RenderContext struct {
	Camera    *graphics.Camera
	Snapshot  *planet.Snapshot
	View      mgl32.Mat4
	Proj      mgl32.Mat4
	Wireframe bool
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
}
