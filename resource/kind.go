package resource

import (
	"fmt"
	"slices"
)

// Kind identifies the type of a GPU resource.
type Kind uint8

const (
	// Device is the logical GPU device. Every other kind depends on it.
	Device Kind = iota
	// ImmediateContext is the command submission context (queue) of a device.
	ImmediateContext
	// SwapChain owns the back buffers presented to the display.
	SwapChain
	// RenderTargetView lets the pipeline write color output into the back buffer.
	RenderTargetView
	// VertexBuffer holds vertex data.
	VertexBuffer
	// InputLayout describes how vertex buffer contents map to shader inputs.
	InputLayout
	// VertexShader is a compiled vertex stage.
	VertexShader
	// PixelShader is a compiled fragment stage.
	PixelShader
	// Texture is a sampled 2D image.
	Texture
	// SamplerState describes texture filtering and addressing.
	SamplerState
	// ShaderResourceView binds a texture to a shader stage.
	ShaderResourceView
	// RenderPipeline binds shaders and the input layout into one pipeline
	// object on backends that require it.
	RenderPipeline

	kindCount
)

var kindNames = [kindCount]string{
	Device:             "Device",
	ImmediateContext:   "ImmediateContext",
	SwapChain:          "SwapChain",
	RenderTargetView:   "RenderTargetView",
	VertexBuffer:       "VertexBuffer",
	InputLayout:        "InputLayout",
	VertexShader:       "VertexShader",
	PixelShader:        "PixelShader",
	Texture:            "Texture",
	SamplerState:       "SamplerState",
	ShaderResourceView: "ShaderResourceView",
	RenderPipeline:     "RenderPipeline",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// dependencyTable is the static dependency edge table: kind -> kinds that
// must be live before it can be acquired.
var dependencyTable = [kindCount][]Kind{
	Device:             nil,
	ImmediateContext:   {Device},
	SwapChain:          {Device},
	RenderTargetView:   {Device, SwapChain},
	VertexBuffer:       {Device},
	InputLayout:        {Device, VertexShader},
	VertexShader:       {Device},
	PixelShader:        {Device},
	Texture:            {Device},
	SamplerState:       {Device},
	ShaderResourceView: {Device, Texture},
	RenderPipeline:     {Device, VertexShader, PixelShader, InputLayout},
}

// DependenciesOf returns the kinds that k depends on per the static table.
// The returned slice is a copy.
func DependenciesOf(k Kind) []Kind {
	if !k.Valid() {
		return nil
	}
	return slices.Clone(dependencyTable[k])
}

// DependsOn reports whether kind a directly depends on kind b per the
// static table.
func DependsOn(a, b Kind) bool {
	if !a.Valid() {
		return false
	}
	return slices.Contains(dependencyTable[a], b)
}

// requiredKinds merges the static dependencies of k with extra, without
// duplicates, keeping table order first.
func requiredKinds(k Kind, extra []Kind) []Kind {
	req := DependenciesOf(k)
	for _, e := range extra {
		if e != k && !slices.Contains(req, e) {
			req = append(req, e)
		}
	}
	return req
}
