// Package meshcodec serialises planet meshes: a compact binary frame for
// the websocket viewer and Wavefront OBJ for export.
package meshcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
)

// ErrBadFrame is wrapped by every decoding failure.
var ErrBadFrame = errors.New("bad mesh frame")

// Magic starts every frame.
const Magic = "PMSH"

const (
	Version    = 1
	headerSize = 4 + 2 + 2 + 4 + 4

	flagZstd   = 1 << 0
	flagColors = 1 << 1
)

// Frame is a decoded mesh: flat little-endian float32 triples and uint32
// triangle indices, ready for typed-array upload.
type Frame struct {
	Positions []float32
	Normals   []float32
	Colors    []float32
	Indices   []uint32
}

// VertexCount is the number of vertices in f.
func (f *Frame) VertexCount() int { return len(f.Positions) / 3 }

// MaxBody caps the body size a header may claim. Decoding never
// allocates more than the header implies, and never more than this.
const MaxBody = 1 << 30

// minDecodeLimit keeps tiny frames decodable: zstd frames below 1 KiB may
// advertise a window larger than their content.
const minDecodeLimit = 64 << 10

var (
	encOnce sync.Once
	encoder *zstd.Encoder
	encErr  error
)

func sharedEncoder() (*zstd.Encoder, error) {
	encOnce.Do(func() {
		encoder, encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder, encErr
}

// decompress inflates body, failing as soon as the output would pass
// limit bytes.
func decompress(body []byte, limit int64) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(max(limit, minDecodeLimit))))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(body, nil)
}

// Encode packs m, and colors when non-nil, into a frame. colors must then
// have one entry per vertex.
func Encode(m *surface.Mesh, colors []mgl64.Vec3, compress bool) ([]byte, error) {
	n := len(m.Vertices)
	if colors != nil && len(colors) != n {
		return nil, fmt.Errorf("encode: %d colours for %d vertices", len(colors), n)
	}
	floats := 6
	var flags uint16
	if colors != nil {
		floats = 9
		flags |= flagColors
	}

	body := make([]byte, 0, n*floats*4+len(m.Indices)*4)
	for _, v := range m.Vertices {
		body = appendVec(body, v.Position)
	}
	for _, v := range m.Vertices {
		body = appendVec(body, v.Normal)
	}
	for _, c := range colors {
		body = appendVec(body, c)
	}
	for _, i := range m.Indices {
		body = binary.LittleEndian.AppendUint32(body, i)
	}

	if compress {
		enc, err := sharedEncoder()
		if err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
		body = enc.EncodeAll(body, nil)
		flags |= flagZstd
	}

	out := make([]byte, headerSize, headerSize+len(body))
	copy(out, Magic)
	binary.LittleEndian.PutUint16(out[4:], Version)
	binary.LittleEndian.PutUint16(out[6:], flags)
	binary.LittleEndian.PutUint32(out[8:], uint32(n))
	binary.LittleEndian.PutUint32(out[12:], uint32(len(m.Indices)))
	return append(out, body...), nil
}

func appendVec(b []byte, v mgl64.Vec3) []byte {
	for _, c := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(c)))
	}
	return b
}

// Decode parses a frame produced by Encode.
func Decode(data []byte) (*Frame, error) {
	if len(data) < headerSize || string(data[:4]) != Magic {
		return nil, fmt.Errorf("%w: missing header", ErrBadFrame)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, fmt.Errorf("%w: version %d", ErrBadFrame, v)
	}
	flags := binary.LittleEndian.Uint16(data[6:])
	n := int(binary.LittleEndian.Uint32(data[8:]))
	ni := int(binary.LittleEndian.Uint32(data[12:]))
	body := data[headerSize:]

	streams := 2
	if flags&flagColors != 0 {
		streams = 3
	}
	want := int64(n)*int64(streams)*12 + int64(ni)*4
	if want > MaxBody {
		return nil, fmt.Errorf("%w: header implies %d bytes, limit %d", ErrBadFrame, want, MaxBody)
	}

	if flags&flagZstd != 0 {
		var err error
		body, err = decompress(body, want)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFrame, err)
		}
	}
	if int64(len(body)) != want {
		return nil, fmt.Errorf("%w: body is %d bytes, header implies %d", ErrBadFrame, len(body), want)
	}
	if ni%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not whole triangles", ErrBadFrame, ni)
	}

	f := &Frame{}
	f.Positions, body = readFloats(body, n*3)
	f.Normals, body = readFloats(body, n*3)
	if streams == 3 {
		f.Colors, body = readFloats(body, n*3)
	}
	f.Indices = make([]uint32, ni)
	for i := range f.Indices {
		idx := binary.LittleEndian.Uint32(body[i*4:])
		if int(idx) >= n {
			return nil, fmt.Errorf("%w: index %d out of range for %d vertices", ErrBadFrame, idx, n)
		}
		f.Indices[i] = idx
	}
	return f, nil
}

func readFloats(b []byte, count int) ([]float32, []byte) {
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, b[count*4:]
}
