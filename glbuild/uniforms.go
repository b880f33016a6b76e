package glbuild

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

// UniformValues holds the values a renderer uploads for the uniforms declared
// by the generated fragment shader. The generated code reads one set of
// uniforms, so values come from the first UiNode of each kind.
type UniformValues struct {
	Texture1, Texture2 uint32 // Texture handles.
	MixFactor          float32
	Brightness         float32
	Contrast           float32
	Saturation         float32
	LightPos           ms3.Vec
	LightColor         ms3.Vec
	LightIntensity     float32
}

// DefaultUniforms returns the values of freshly created nodes of every kind.
func DefaultUniforms() UniformValues {
	return UniformValues{
		MixFactor:      shadergraph.DefaultMixFactor,
		Brightness:     shadergraph.DefaultBrightness,
		Contrast:       shadergraph.DefaultContrast,
		Saturation:     shadergraph.DefaultSaturation,
		LightPos:       shadergraph.DefaultLightPosition,
		LightColor:     shadergraph.DefaultLightColor,
		LightIntensity: shadergraph.DefaultIntensity,
	}
}

// Uniforms collects uniform values from the UiNodes. Kinds absent from the
// list keep their defaults. A texture node sets Texture1 unless a blend node
// already set both textures.
func Uniforms(nodes []shadergraph.UiNode, g *graph.Graph[shadergraph.Node]) UniformValues {
	u := DefaultUniforms()
	value := func(id int) float32 {
		n, _ := g.Node(id)
		return n.Value
	}
	var seenTexture, seenBlend, seenAdjust, seenLight bool
	for _, ui := range nodes {
		switch k := ui.Kind.(type) {
		case shadergraph.TextureKind:
			if !seenTexture && !seenBlend {
				u.Texture1 = uint32(value(k.Handle))
			}
			seenTexture = true
		case shadergraph.BlendKind:
			if seenBlend {
				continue
			}
			seenBlend = true
			u.Texture1 = uint32(value(k.Texture1))
			u.Texture2 = uint32(value(k.Texture2))
			u.MixFactor = value(ui.ID)
		case shadergraph.ColorAdjustKind:
			if seenAdjust {
				continue
			}
			seenAdjust = true
			u.Brightness = value(k.Brightness)
			u.Contrast = value(k.Contrast)
			u.Saturation = value(ui.ID)
		case shadergraph.LightKind:
			if seenLight {
				continue
			}
			seenLight = true
			u.LightPos = k.Position
			u.LightColor = k.Color
			u.LightIntensity = value(ui.ID)
		}
	}
	return u
}
