// Package planetmesh draws the planet surface with per-fragment layer
// colouring and lighting.
package planetmesh

import (
	"context"

	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/logging"
	"mini-planet/internal/planet"
	"mini-planet/internal/surface"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// buffers is one uploaded mesh and its height cube. A snapshot with a new
// mesh gets new buffers; the old ones are deleted only after the new ones
// are complete. Shading-only snapshots share the mesh and keep the buffers.
type buffers struct {
	vao, vbo, ebo uint32
	heights       uint32
	count         int32
	mesh          *surface.Mesh
	version       uint64
}

// prepared is the CPU half of an upload, built off the render thread.
type prepared struct {
	snap *planet.Snapshot
	data []float32
	cube *planet.HeightCube
	err  error
}

func (b *buffers) delete() {
	if b.heights != 0 {
		gl.DeleteTextures(1, &b.heights)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
	}
}

// PlanetMesh implements renderer.Renderable.
type PlanetMesh struct {
	shader    *graphics.Shader
	cur       *buffers
	log       *logging.Logger
	cubeSize  int
	ready     chan prepared
	preparing bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// New returns a planet renderable whose height cube faces are cubeSize
// texels wide; zero selects planet.DefaultHeightCubeSize.
func New(log *logging.Logger, cubeSize int) *PlanetMesh {
	if log == nil {
		log = logging.Default()
	}
	if cubeSize <= 0 {
		cubeSize = planet.DefaultHeightCubeSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PlanetMesh{
		log:      log,
		cubeSize: cubeSize,
		ready:    make(chan prepared, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (p *PlanetMesh) Init() error {
	var err error
	p.shader, err = graphics.LoadShader("planet")
	return err
}

func (p *PlanetMesh) Render(ctx renderer.RenderContext) {
	snap := ctx.Snapshot
	if snap == nil {
		return
	}
	if p.cur == nil || p.cur.version != snap.Version {
		p.sync(snap)
	}
	if p.cur == nil {
		return
	}

	p.shader.Use()
	p.shader.SetMat4("view", ctx.View)
	p.shader.SetMat4("projection", ctx.Proj)
	p.setShading(snap, ctx.Camera.Eye())
	p.shader.SetBool("wireframe", ctx.Wireframe)

	if ctx.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, p.cur.heights)
	p.shader.SetInt("heightMap", 0)
	gl.BindVertexArray(p.cur.vao)
	gl.DrawElements(gl.TRIANGLES, p.cur.count, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func vec3(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func (p *PlanetMesh) setShading(snap *planet.Snapshot, eye mgl32.Vec3) {
	s := snap.Settings
	for i, c := range s.Layers.Colors {
		p.shader.SetVec3(indexed("colors", i), vec3(c))
	}
	for i := range s.Layers.Transitions {
		p.shader.SetFloat(indexed("transitions", i), float32(s.Layers.Transitions[i]))
		p.shader.SetFloat(indexed("blends", i), float32(s.Layers.Blends[i]))
	}
	p.shader.SetFloat("planetRadius", float32(s.Terrain.Radius))
	p.shader.SetFloat("bumpOffset", float32(s.Bump.Offset))
	p.shader.SetFloat("bumpStrength", float32(s.Bump.Strength))
	p.shader.SetFloat("ambientIntensity", float32(s.Light.Ambient))
	p.shader.SetFloat("diffuseIntensity", float32(s.Light.Diffuse))
	p.shader.SetFloat("specularIntensity", float32(s.Light.Specular))
	p.shader.SetFloat("shininess", float32(s.Light.Shininess))
	p.shader.SetVec3("lightDirection", vec3(s.Light.Direction))
	p.shader.SetVec3("lightColor", vec3(s.Light.Color))
	p.shader.SetVec3("cameraPosition", eye)
}

func indexed(name string, i int) string {
	return name + "[" + string(rune('0'+i)) + "]"
}

// sync brings the uploaded buffers up to snap. Until a new mesh is ready
// the previous one keeps drawing.
func (p *PlanetMesh) sync(snap *planet.Snapshot) {
	select {
	case r := <-p.ready:
		p.preparing = false
		if r.err != nil {
			p.log.Errorf("prepare planet v%d: %v", r.snap.Version, r.err)
		} else {
			p.upload(r)
		}
	default:
	}
	if p.cur != nil && p.cur.mesh == snap.Mesh {
		p.cur.version = snap.Version
		return
	}
	if !p.preparing {
		p.preparing = true
		go p.prepare(snap)
	}
}

func (p *PlanetMesh) prepare(snap *planet.Snapshot) {
	r := prepared{snap: snap}
	r.data, r.err = snap.GPUVertices(p.ctx)
	if r.err == nil {
		r.cube, r.err = snap.HeightCube(p.ctx, p.cubeSize)
	}
	p.ready <- r
}

// upload builds buffers for a prepared snapshot and swaps them in.
func (p *PlanetMesh) upload(r prepared) {
	snap := r.snap
	indices := snap.Mesh.Indices

	b := &buffers{count: int32(len(indices)), mesh: snap.Mesh, version: snap.Version}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(r.data)*4, gl.Ptr(r.data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(planet.GPUStride * 4)
	for loc := 0; loc < 5; loc++ {
		gl.EnableVertexAttribArray(uint32(loc))
		gl.VertexAttribPointer(uint32(loc), 3, gl.FLOAT, false, stride, gl.PtrOffset(loc*3*4))
	}
	gl.BindVertexArray(0)

	b.heights = uploadCube(r.cube)

	old := p.cur
	p.cur = b
	if old != nil {
		old.delete()
	}
	p.log.Debugf("uploaded planet v%d: %d vertices, height cube %d", snap.Version, len(snap.Mesh.Vertices), r.cube.Size)
}

func uploadCube(c *planet.HeightCube) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex)
	for f, face := range c.Faces {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(f), 0, gl.R32F,
			int32(c.Size), int32(c.Size), 0, gl.RED, gl.FLOAT, gl.Ptr(face))
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return tex
}

func (p *PlanetMesh) Dispose() {
	p.cancel()
	if p.cur != nil {
		p.cur.delete()
		p.cur = nil
	}
	if p.shader != nil {
		p.shader.Delete()
	}
}
