package meshcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"mini-planet/internal/surface"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMesh(t *testing.T) *surface.Mesh {
	t.Helper()
	m, err := surface.Build(surface.CubeSphere, 6, 2)
	require.NoError(t, err)
	return m
}

func colorsFor(m *surface.Mesh) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(m.Vertices))
	for i := range out {
		out[i] = mgl64.Vec3{float64(i%7) / 7, 0.5, 1}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	m := testMesh(t)
	for _, compress := range []bool{false, true} {
		for _, withColors := range []bool{false, true} {
			var colors []mgl64.Vec3
			if withColors {
				colors = colorsFor(m)
			}
			data, err := Encode(m, colors, compress)
			require.NoError(t, err)

			f, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, len(m.Vertices), f.VertexCount())
			require.Equal(t, m.Indices, f.Indices)
			for i, v := range m.Vertices {
				assert.Equal(t, float32(v.Position[1]), f.Positions[i*3+1])
				assert.Equal(t, float32(v.Normal[2]), f.Normals[i*3+2])
			}
			if withColors {
				require.Len(t, f.Colors, len(m.Vertices)*3)
				assert.Equal(t, float32(colors[5][0]), f.Colors[15])
			} else {
				assert.Nil(t, f.Colors)
			}
		}
	}
}

func TestCompressionShrinks(t *testing.T) {
	m := testMesh(t)
	raw, err := Encode(m, nil, false)
	require.NoError(t, err)
	packed, err := Encode(m, nil, true)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(raw))
	assert.Equal(t, Magic, string(packed[:4]))
}

func TestEncodeRejectsColourMismatch(t *testing.T) {
	m := testMesh(t)
	_, err := Encode(m, make([]mgl64.Vec3, 3), false)
	assert.Error(t, err)
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	m := testMesh(t)
	good, err := Encode(m, nil, false)
	require.NoError(t, err)

	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(badVersion[4:], 99)

	badIndex := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badIndex[len(badIndex)-4:], uint32(len(m.Vertices)))

	badZstd := append([]byte(nil), good[:headerSize]...)
	binary.LittleEndian.PutUint16(badZstd[6:], flagZstd)
	badZstd = append(badZstd, 1, 2, 3, 4)

	cases := map[string][]byte{
		"empty":     nil,
		"magic":     append([]byte("NOPE"), good[4:]...),
		"version":   badVersion,
		"truncated": good[:len(good)-5],
		"index":     badIndex,
		"zstd":      badZstd,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			assert.ErrorIs(t, err, ErrBadFrame)
		})
	}
}

func TestDecodeBoundsDecompression(t *testing.T) {
	// A compressed body far larger than its header's counts allow.
	enc, err := sharedEncoder()
	require.NoError(t, err)
	inflated := enc.EncodeAll(make([]byte, 8<<20), nil)

	frame := make([]byte, headerSize, headerSize+len(inflated))
	copy(frame, Magic)
	binary.LittleEndian.PutUint16(frame[4:], Version)
	binary.LittleEndian.PutUint16(frame[6:], flagZstd)
	binary.LittleEndian.PutUint32(frame[8:], 1)
	frame = append(frame, inflated...)

	_, err = Decode(frame)
	assert.ErrorIs(t, err, ErrBadFrame)
	assert.True(t, errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded), "%v", err)

	// Counts beyond MaxBody are refused before any body is read.
	huge := append([]byte(nil), frame[:headerSize]...)
	binary.LittleEndian.PutUint32(huge[8:], 0xffffffff)
	_, err = Decode(huge)
	assert.ErrorIs(t, err, ErrBadFrame)
	assert.Contains(t, err.Error(), "limit")

	// Small compressed frames still decode under the bound.
	m := testMesh(t)
	small, err := Encode(m, colorsFor(m), true)
	require.NoError(t, err)
	f, err := Decode(small)
	require.NoError(t, err)
	assert.Equal(t, len(m.Vertices), f.VertexCount())
}

func TestWriteOBJ(t *testing.T) {
	m := testMesh(t)
	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, m, "planet"))

	text := buf.String()
	counts := map[string]int{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if f := strings.Fields(sc.Text()); len(f) > 0 {
			counts[f[0]]++
		}
	}
	assert.Equal(t, 1, counts["o"])
	assert.Equal(t, len(m.Vertices), counts["v"])
	assert.Equal(t, len(m.Vertices), counts["vn"])
	assert.Equal(t, m.TriangleCount(), counts["f"])
	assert.NotContains(t, text, "f 0/")
}
