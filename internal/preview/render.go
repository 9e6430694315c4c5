// Package preview renders a planet snapshot to an image on the CPU, running
// the same per-fragment shading as the GL viewer.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"runtime"

	"mini-planet/internal/planet"
	"mini-planet/internal/shading"
	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"
)

// AtmosphereScale is the halo shell radius relative to the base radius.
const AtmosphereScale = 26

type Options struct {
	Width, Height int
	// FOV is the vertical field of view in degrees.
	FOV        float64
	Atmosphere bool
	Caption    string
	Workers    int
	Background color.RGBA
}

func DefaultOptions() Options {
	return Options{
		Width:      512,
		Height:     512,
		FOV:        75,
		Atmosphere: true,
		Background: color.RGBA{A: 255},
	}
}

// camera maps world points to pixels.
type camera struct {
	eye      mgl64.Vec3
	viewProj mgl64.Mat4
	inv      mgl64.Mat4
	w, h     float64
}

func newCamera(eye mgl64.Vec3, opts Options) camera {
	up := mgl64.Vec3{0, 1, 0}
	if math.Abs(eye.Normalize().Dot(up)) > 0.999 {
		up = mgl64.Vec3{0, 0, 1}
	}
	view := mgl64.LookAtV(eye, mgl64.Vec3{}, up)
	aspect := float64(opts.Width) / float64(opts.Height)
	proj := mgl64.Perspective(mgl64.DegToRad(opts.FOV), aspect, 0.1, 10*eye.Len()+1000)
	vp := proj.Mul4(view)
	return camera{eye: eye, viewProj: vp, inv: vp.Inv(), w: float64(opts.Width), h: float64(opts.Height)}
}

// project returns the pixel position, NDC depth and clip w of p.
func (c camera) project(p mgl64.Vec3) (x, y, z, w float64) {
	clip := c.viewProj.Mul4x1(p.Vec4(1))
	w = clip[3]
	if w <= 1e-9 {
		return 0, 0, 0, w
	}
	x = (clip[0]/w*0.5 + 0.5) * c.w
	y = (1 - (clip[1]/w*0.5 + 0.5)) * c.h
	return x, y, clip[2] / w, w
}

// rayDir is the world direction through the centre of pixel (px, py).
func (c camera) rayDir(px, py float64) mgl64.Vec3 {
	nx := (px+0.5)/c.w*2 - 1
	ny := 1 - (py+0.5)/c.h*2
	far := c.inv.Mul4x1(mgl64.Vec4{nx, ny, 1, 1})
	return far.Vec3().Mul(1 / far[3]).Sub(c.eye).Normalize()
}

type screenVertex struct {
	x, y, z, invW float64
	v             *surface.Vertex
}

// Render rasterises snap as seen from its camera.
func Render(ctx context.Context, snap *planet.Snapshot, opts Options) (*image.RGBA, error) {
	if snap == nil || snap.Mesh == nil {
		return nil, errors.New("preview: nothing to render")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("preview: bad size %dx%d", opts.Width, opts.Height)
	}
	if !(opts.FOV > 0 && opts.FOV < 180) {
		opts.FOV = DefaultOptions().FOV
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	s := snap.Settings
	cam := newCamera(s.Camera.Position, opts)
	sh := planet.NewShader(s)
	m := snap.Mesh

	verts := make([]screenVertex, len(m.Vertices))
	for i := range m.Vertices {
		x, y, z, w := cam.project(m.Vertices[i].Position)
		verts[i] = screenVertex{x: x, y: y, z: z, v: &m.Vertices[i]}
		if w > 1e-9 {
			verts[i].invW = 1 / w
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	depth := make([]float64, opts.Width*opts.Height)
	for i := range depth {
		depth[i] = math.Inf(1)
	}

	band := (opts.Height + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < opts.Height; y0 += band {
		y0, y1 := y0, min(y0+band, opts.Height)
		g.Go(func() error {
			r := &raster{img: img, depth: depth, width: opts.Width, y0: y0, y1: y1, shader: sh}
			for t := 0; t+2 < len(m.Indices); t += 3 {
				if t%3000 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				r.triangle(verts[m.Indices[t]], verts[m.Indices[t+1]], verts[m.Indices[t+2]])
			}
			r.finish(cam, opts, s.Mesh.BaseRadius*AtmosphereScale)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if opts.Caption != "" {
		if err := drawCaption(img, opts.Caption); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// raster owns rows [y0, y1) of the shared target.
type raster struct {
	img    *image.RGBA
	depth  []float64
	width  int
	y0, y1 int
	shader *shading.Shader
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (r *raster) triangle(a, b, c screenVertex) {
	if a.invW == 0 || b.invW == 0 || c.invW == 0 {
		return
	}
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	// Screen y points down, so outward CCW faces have negative area.
	if area >= 0 {
		return
	}
	minX := max(0, int(math.Floor(min(a.x, b.x, c.x))))
	maxX := min(r.width-1, int(math.Ceil(max(a.x, b.x, c.x))))
	minY := max(r.y0, int(math.Floor(min(a.y, b.y, c.y))))
	maxY := min(r.y1-1, int(math.Ceil(max(a.y, b.y, c.y))))

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			fx, fy := float64(px)+0.5, float64(py)+0.5
			w0 := edge(b.x, b.y, c.x, c.y, fx, fy) / area
			w1 := edge(c.x, c.y, a.x, a.y, fx, fy) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			idx := py*r.width + px
			if z >= r.depth[idx] {
				continue
			}
			r.depth[idx] = z

			// Perspective-correct attribute weights.
			p0, p1, p2 := w0*a.invW, w1*b.invW, w2*c.invW
			k := 1 / (p0 + p1 + p2)
			p0, p1, p2 = p0*k, p1*k, p2*k
			lerp := func(x, y, z mgl64.Vec3) mgl64.Vec3 {
				return x.Mul(p0).Add(y.Mul(p1)).Add(z.Mul(p2))
			}
			base := lerp(a.v.Base, b.v.Base, c.v.Base)
			frag := r.shader.Shade(base,
				lerp(a.v.Normal, b.v.Normal, c.v.Normal),
				lerp(a.v.Tangent, b.v.Tangent, c.v.Tangent),
				lerp(a.v.Bitangent, b.v.Bitangent, c.v.Bitangent))
			r.img.SetRGBA(px, py, toRGBA(frag.Color, 1))
		}
	}
}

// finish fills the uncovered pixels of the band with the background and
// the additive halo of the atmosphere's back faces.
func (r *raster) finish(cam camera, opts Options, shell float64) {
	for py := r.y0; py < r.y1; py++ {
		for px := 0; px < r.width; px++ {
			idx := py*r.width + px
			if !math.IsInf(r.depth[idx], 1) {
				continue
			}
			bg := opts.Background
			if opts.Atmosphere {
				dir := cam.rayDir(float64(px), float64(py))
				if hit, ok := farHit(cam.eye, dir, shell); ok {
					n := hit.Normalize()
					v := cam.eye.Sub(hit).Normalize()
					c := shading.AtmosphereColor(n, v)
					// Additive blend weighted by the halo's own alpha.
					add := func(dst uint8, src float64) uint8 {
						return uint8(math.Min(255, float64(dst)+255*src*c[3]))
					}
					bg = color.RGBA{R: add(bg.R, c[0]), G: add(bg.G, c[1]), B: add(bg.B, c[2]), A: 255}
				}
			}
			r.img.SetRGBA(px, py, bg)
		}
	}
}

// farHit is the far intersection of the ray with the sphere of radius r
// at the origin.
func farHit(o, d mgl64.Vec3, r float64) (mgl64.Vec3, bool) {
	b := o.Dot(d)
	c := o.Dot(o) - r*r
	disc := b*b - c
	if disc < 0 {
		return mgl64.Vec3{}, false
	}
	t := -b + math.Sqrt(disc)
	if t <= 0 {
		return mgl64.Vec3{}, false
	}
	return o.Add(d.Mul(t)), true
}

func toRGBA(c mgl64.Vec3, alpha float64) color.RGBA {
	ch := func(v float64) uint8 {
		if !(v > 0) {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(alpha)}
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
