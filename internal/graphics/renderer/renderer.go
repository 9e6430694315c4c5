package renderer

import (
	"mini-planet/internal/graphics"
	"mini-planet/internal/planet"
	"mini-planet/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Renderer draws its renderables in order every frame.
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera
	prof        *profiling.Profile

	Wireframe bool
}

// NewRenderer sets the fixed GL state and initialises every renderable.
func NewRenderer(camera *graphics.Camera, prof *profiling.Profile, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	for _, r := range rs {
		if err := r.Init(); err != nil {
			return nil, err
		}
	}
	if prof == nil {
		prof = new(profiling.Profile)
	}
	return &Renderer{renderables: rs, camera: camera, prof: prof}, nil
}

// Render clears the frame and draws snap.
func (r *Renderer) Render(snap *planet.Snapshot) {
	defer r.prof.Track("renderer.Render")()

	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	ctx := RenderContext{
		Camera:    r.camera,
		Snapshot:  snap,
		View:      r.camera.ViewMatrix(),
		Proj:      r.camera.ProjectionMatrix(),
		Wireframe: r.Wireframe,
	}
	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// Camera returns the camera instance
func (r *Renderer) Camera() *graphics.Camera {
	return r.camera
}

// UpdateViewport updates the GL viewport and the camera aspect.
func (r *Renderer) UpdateViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.SetViewport(width, height)
}
