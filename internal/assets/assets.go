// Package assets holds the embedded shader sources and vertex data of the
// triangle demo.
package assets

import (
	"embed"
	"encoding/binary"
	"math"
)

// Shaders contains the WGSL sources under shaders/.
//
//go:embed shaders/*.wgsl
var Shaders embed.FS

// TriangleShader is the path of the triangle shader inside Shaders.
const TriangleShader = "shaders/triangle.wgsl"

// Entry points of TriangleShader.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// FloatsPerVertex is the vertex size in float32s: position xy, color rgba.
const FloatsPerVertex = 6

// VertexStride is the vertex size in bytes.
const VertexStride = FloatsPerVertex * 4

// ColorOffset is the byte offset of the color attribute.
const ColorOffset = 2 * 4

// Triangle is the hardcoded triangle in clip space, counter-clockwise.
var Triangle = []float32{
	0.0, 0.5, 1, 0, 0, 1,
	0.5, -0.5, 0, 1, 0, 1,
	-0.5, -0.5, 0, 0, 1, 1,
}

// VertexBytes encodes vertices as little-endian float32s.
func VertexBytes(vertices []float32) []byte {
	buf := make([]byte, len(vertices)*4)
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
