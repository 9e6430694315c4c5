// Package hud draws the text overlay of the planet viewer.
package hud

import (
	"fmt"
	"time"

	"mini-planet/internal/graphics"
	renderer "mini-planet/internal/graphics/renderer"
	"mini-planet/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	fontPixels   = 14
	refreshEvery = 500 * time.Millisecond
)

// HUD implements renderer.Renderable. Its text is recomposed at most every
// refreshEvery; profile stages are reset after each recompose so the
// overlay shows recent cost only.
type HUD struct {
	text   *graphics.TextRenderer
	prof   *profiling.Profile
	width  int
	height int

	Visible bool
	Status  func() string

	frames    int
	fps       float64
	lastCheck time.Time
	lines     []string
}

func New(prof *profiling.Profile, width, height int) *HUD {
	return &HUD{prof: prof, width: width, height: height, Visible: true}
}

func (h *HUD) Init() error {
	atlas, err := graphics.BuildAtlas(fontPixels)
	if err != nil {
		return err
	}
	h.text, err = graphics.NewTextRenderer(atlas, h.width, h.height)
	return err
}

func (h *HUD) SetViewport(width, height int) {
	h.width, h.height = width, height
	if h.text != nil {
		h.text.SetViewport(width, height)
	}
}

func (h *HUD) Render(ctx renderer.RenderContext) {
	h.frames++
	now := time.Now()
	if h.lastCheck.IsZero() {
		h.lastCheck = now
	}
	if d := now.Sub(h.lastCheck); d >= refreshEvery {
		h.fps = float64(h.frames) / d.Seconds()
		h.frames = 0
		h.lastCheck = now
		h.lines = h.compose(ctx)
		if h.prof != nil {
			h.prof.Reset()
		}
	}
	if !h.Visible || len(h.lines) == 0 {
		return
	}
	h.text.RenderLines(h.lines, 8, 4, mgl32.Vec3{1, 1, 1})
}

func (h *HUD) compose(ctx renderer.RenderContext) []string {
	lines := []string{fmt.Sprintf("%.0f fps", h.fps)}
	if snap := ctx.Snapshot; snap != nil {
		m := snap.Settings.Mesh
		lines = append(lines,
			fmt.Sprintf("v%d %s res %d: %d verts, %d tris", snap.Version, m.Shape, m.Resolution,
				len(snap.Mesh.Vertices), snap.Mesh.TriangleCount()),
			fmt.Sprintf("%s noise, %d craters", snap.Settings.Noise.Kind, len(snap.Settings.Craters.Stamps)),
		)
	}
	if h.Status != nil {
		if s := h.Status(); s != "" {
			lines = append(lines, s)
		}
	}
	if h.prof != nil {
		if top := h.prof.TopN(4); top != "" {
			lines = append(lines, top)
		}
	}
	return lines
}

func (h *HUD) Dispose() {
	if h.text != nil {
		h.text.Dispose()
	}
}
