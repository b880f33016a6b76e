package shadergraph

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// UiNode is one editor-visible node. ID is the operator node in the graph and
// Kind holds the ids of the placeholder value nodes the UiNode owns.
type UiNode struct {
	ID   int
	Pos  ms2.Vec
	Kind UiKind
}

// UiKind is the closed set of kind-specific UiNode payloads.
// Implemented by [AddKind], [MultiplyKind], [PowerKind], [OutputKind], [SineKind], [TimeKind],
// [CubeViewportKind], [SphereViewportKind], [TextureKind], [BlendKind],
// [ColorAdjustKind] and [LightKind].
type UiKind interface {
	// Type returns the node type of the UiNode's operator node.
	Type() NodeType
	// AppendAux appends the ids of the placeholder nodes owned by the kind.
	AppendAux(dst []int) []int
	isUiKind()
}

// Type returns the operator node type of the UiNode.
func (u UiNode) Type() NodeType { return u.Kind.Type() }

// AuxIDs returns the placeholder node ids owned by the UiNode.
func (u UiNode) AuxIDs() []int { return u.Kind.AppendAux(nil) }

type (
	AddKind      struct{ Lhs, Rhs int }
	MultiplyKind struct{ Lhs, Rhs int }
	PowerKind    struct{ Lhs, Rhs int }
	OutputKind   struct{ R, G, B int }
	SineKind     struct{ Input int }
	TimeKind     struct{}
	// CubeViewportKind's input drives the preview cube rotation in radians.
	CubeViewportKind   struct{ Input int }
	SphereViewportKind struct{ Input int }
	// TextureKind's Handle node holds the GPU texture handle as a float.
	TextureKind struct {
		Handle int
		Path   string
	}
	// BlendKind mixes two texture handles. MixFactor is a holder node with no
	// edge whose value is mirrored into the blend operator node.
	BlendKind struct {
		Texture1, Texture2 int
		MixFactor          int
		Path1, Path2       string
	}
	// ColorAdjustKind's Saturation is a holder node with no edge whose value is
	// mirrored into the colorAdjust operator node.
	ColorAdjustKind struct {
		Color, Brightness, Contrast int
		Saturation                  int
	}
	// LightKind keeps its vectors on the UiNode. Intensity lives in the operator node's value.
	LightKind struct {
		Position ms3.Vec
		Color    ms3.Vec
	}
)

func (AddKind) Type() NodeType            { return Add }
func (MultiplyKind) Type() NodeType       { return Multiply }
func (PowerKind) Type() NodeType          { return Power }
func (OutputKind) Type() NodeType         { return Output }
func (SineKind) Type() NodeType           { return Sine }
func (TimeKind) Type() NodeType           { return Time }
func (CubeViewportKind) Type() NodeType   { return CubeViewport }
func (SphereViewportKind) Type() NodeType { return SphereViewport }
func (TextureKind) Type() NodeType        { return Texture }
func (BlendKind) Type() NodeType          { return Blend }
func (ColorAdjustKind) Type() NodeType    { return ColorAdjust }
func (LightKind) Type() NodeType          { return Light }

func (k AddKind) AppendAux(dst []int) []int            { return append(dst, k.Lhs, k.Rhs) }
func (k MultiplyKind) AppendAux(dst []int) []int       { return append(dst, k.Lhs, k.Rhs) }
func (k PowerKind) AppendAux(dst []int) []int          { return append(dst, k.Lhs, k.Rhs) }
func (k OutputKind) AppendAux(dst []int) []int         { return append(dst, k.R, k.G, k.B) }
func (k SineKind) AppendAux(dst []int) []int           { return append(dst, k.Input) }
func (TimeKind) AppendAux(dst []int) []int             { return dst }
func (k CubeViewportKind) AppendAux(dst []int) []int   { return append(dst, k.Input) }
func (k SphereViewportKind) AppendAux(dst []int) []int { return append(dst, k.Input) }
func (k TextureKind) AppendAux(dst []int) []int        { return append(dst, k.Handle) }
func (k BlendKind) AppendAux(dst []int) []int {
	return append(dst, k.Texture1, k.Texture2, k.MixFactor)
}
func (k ColorAdjustKind) AppendAux(dst []int) []int {
	return append(dst, k.Color, k.Brightness, k.Contrast, k.Saturation)
}
func (LightKind) AppendAux(dst []int) []int { return dst }

func (AddKind) isUiKind()            {}
func (MultiplyKind) isUiKind()       {}
func (PowerKind) isUiKind()          {}
func (OutputKind) isUiKind()         {}
func (SineKind) isUiKind()           {}
func (TimeKind) isUiKind()           {}
func (CubeViewportKind) isUiKind()   {}
func (SphereViewportKind) isUiKind() {}
func (TextureKind) isUiKind()        {}
func (BlendKind) isUiKind()          {}
func (ColorAdjustKind) isUiKind()    {}
func (LightKind) isUiKind()          {}

// Default placeholder values given to new UiNodes.
const (
	DefaultMixFactor  = 0.5
	DefaultBrightness = 0
	DefaultContrast   = 1
	DefaultSaturation = 1
	DefaultIntensity  = 1
)

var (
	DefaultLightPosition = ms3.Vec{X: 10, Y: 10, Z: 10}
	DefaultLightColor    = ms3.Vec{X: 1, Y: 1, Z: 1}
)
