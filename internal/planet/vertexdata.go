package planet

import (
	"context"
	"runtime"

	"mini-planet/internal/surface"
)

// GPUStride is the float count per vertex of GPUVertices: position,
// geometric normal, base point, tangent, bitangent.
const GPUStride = 15

// GPUVertices packs the snapshot for a GPU that shades per fragment. Height
// and bump normal are not baked per vertex; the fragment stage samples
// HeightCube at the interpolated base point along the tangent frame.
func (s *Snapshot) GPUVertices(ctx context.Context) ([]float32, error) {
	m := s.Mesh
	out := make([]float32, len(m.Vertices)*GPUStride)
	err := surface.ForEachRange(ctx, len(m.Vertices), runtime.GOMAXPROCS(0), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v := &m.Vertices[i]
			o := out[i*GPUStride : (i+1)*GPUStride]
			o[0], o[1], o[2] = float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2])
			o[3], o[4], o[5] = float32(v.Normal[0]), float32(v.Normal[1]), float32(v.Normal[2])
			o[6], o[7], o[8] = float32(v.Base[0]), float32(v.Base[1]), float32(v.Base[2])
			o[9], o[10], o[11] = float32(v.Tangent[0]), float32(v.Tangent[1]), float32(v.Tangent[2])
			o[12], o[13], o[14] = float32(v.Bitangent[0]), float32(v.Bitangent[1]), float32(v.Bitangent[2])
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
