// Package glbuild generates GLSL shader sources from a shadergraph graph.
// Each feature node in the UiNode list becomes a preprocessor macro and an
// #ifdef-guarded block in the fragment shader's main function.
package glbuild

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

const VersionStr = "#version 330 core\n"

//go:embed vertex.glsl
var vertexSrc string

//go:embed adjustcolor.glsl
var adjustColorSrc []byte

//go:embed blendtextures.glsl
var blendTexturesSrc []byte

//go:embed lighting.glsl
var lightingSrc []byte

// ShaderOutput is the result of generating shader sources for a graph.
type ShaderOutput struct {
	VertexCode   string
	FragmentCode string
	// Macros are the feature symbols defined at the top of FragmentCode,
	// in UiNode list order.
	Macros []string
}

// ShaderFunction is a GLSL function definition written verbatim into generated sources.
type ShaderFunction struct {
	Name   []byte
	Source []byte
}

// MakeShaderFunction parses the function name out of a GLSL function definition.
func MakeShaderFunction(shaderDef []byte) (sf ShaderFunction, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderFunction{}, errors.New("unable to parse function name")
	}
	name := bytes.TrimSpace(shaderDef[fnNameStart:fnNameEnd])
	if len(name) == 0 {
		return ShaderFunction{}, errors.New("empty function name")
	}
	return ShaderFunction{Name: name, Source: shaderDef}, nil
}

func mustShaderFunction(src []byte) ShaderFunction {
	sf, err := MakeShaderFunction(src)
	if err != nil {
		panic(err)
	}
	return sf
}

var defaultHelpers = []ShaderFunction{
	mustShaderFunction(adjustColorSrc),
	mustShaderFunction(blendTexturesSrc),
	mustShaderFunction(lightingSrc),
}

// Uniform names shared by the generated fragment shader and the renderer.
const (
	UniformTexture1       = "texture1"
	UniformTexture2       = "texture2"
	UniformMixFactor      = "mixFactor"
	UniformBrightness     = "brightness"
	UniformContrast       = "contrast"
	UniformSaturation     = "saturation"
	UniformLightPos       = "lightPos"
	UniformLightColor     = "lightColor"
	UniformLightIntensity = "lightIntensity"
	UniformViewPos        = "viewPos"
	UniformModel          = "model"
	UniformView           = "view"
	UniformProjection     = "projection"
)

var fragmentUniforms = []struct{ typ, name string }{
	{"sampler2D", UniformTexture1},
	{"sampler2D", UniformTexture2},
	{"float", UniformMixFactor},
	{"float", UniformBrightness},
	{"float", UniformContrast},
	{"float", UniformSaturation},
	{"vec3", UniformLightPos},
	{"vec3", UniformLightColor},
	{"float", UniformLightIntensity},
	{"vec3", UniformViewPos},
}

const fragmentVaryings = `in vec2 TexCoords;
in vec3 Normal;
in vec3 FragPos;
out vec4 FragColor;
`

// Programmer implements shader generation for a UiNode list and its graph.
// A Programmer reuses internal buffers and is not safe for concurrent use.
type Programmer struct {
	scratch []byte
	helpers []ShaderFunction
	// names maps helper name hashes to body hashes for checking duplicates.
	names map[uint64]uint64
	// visited and adjacency are scratch state for topological sorting.
	visited   map[int]struct{}
	adjacency map[int][]int
	order     []int
}

// NewDefaultProgrammer returns a Programmer that writes the default helper
// functions adjustColor, blendTextures and calculateLighting.
func NewDefaultProgrammer() *Programmer {
	p := &Programmer{
		scratch:   make([]byte, 0, 2048),
		names:     make(map[uint64]uint64),
		visited:   make(map[int]struct{}),
		adjacency: make(map[int][]int),
	}
	for _, fn := range defaultHelpers {
		if err := p.AddHelper(fn); err != nil {
			panic(err) // Embedded helpers have distinct names.
		}
	}
	return p
}

// AddHelper appends a GLSL function written after the uniform declarations.
// Adding a function with the name of an existing one and a different body is an error.
func (p *Programmer) AddHelper(fn ShaderFunction) error {
	for _, h := range p.helpers {
		if bytes.Equal(h.Name, fn.Name) {
			if bytes.Equal(h.Source, fn.Source) {
				return nil
			}
			return fmt.Errorf("conflicting helper function %q", fn.Name)
		}
	}
	p.helpers = append(p.helpers, fn)
	return nil
}

// Generate returns the vertex and fragment shader sources for the graph.
func Generate(nodes []shadergraph.UiNode, g *graph.Graph[shadergraph.Node]) (ShaderOutput, error) {
	return NewDefaultProgrammer().Generate(nodes, g)
}

// Generate returns the vertex and fragment shader sources for the graph.
func (p *Programmer) Generate(nodes []shadergraph.UiNode, g *graph.Graph[shadergraph.Node]) (ShaderOutput, error) {
	var buf bytes.Buffer
	_, macros, err := p.WriteFragment(&buf, nodes, g)
	if err != nil {
		return ShaderOutput{}, err
	}
	return ShaderOutput{
		VertexCode:   vertexSrc,
		FragmentCode: buf.String(),
		Macros:       macros,
	}, nil
}

// VertexSource returns the fixed vertex shader source.
func VertexSource() string { return vertexSrc }

// Macro returns the feature macro name of a UiNode and whether its kind has one.
func Macro(ui shadergraph.UiNode) (string, bool) {
	b, ok := AppendMacroName(nil, ui)
	return string(b), ok
}

// AppendMacroName appends the USE_<KIND>_<id> macro of a feature UiNode.
func AppendMacroName(b []byte, ui shadergraph.UiNode) ([]byte, bool) {
	var kind string
	switch ui.Type() {
	case shadergraph.Texture:
		kind = "TEXTURE"
	case shadergraph.Blend:
		kind = "BLEND"
	case shadergraph.ColorAdjust:
		kind = "COLOR_ADJUST"
	case shadergraph.Light:
		kind = "LIGHT"
	default:
		return b, false
	}
	b = append(b, "USE_"...)
	b = append(b, kind...)
	b = append(b, '_')
	b = strconv.AppendInt(b, int64(ui.ID), 10)
	return b, true
}

// WriteFragment writes the fragment shader for the graph to w and returns the
// number of bytes written and the macros defined.
func (p *Programmer) WriteFragment(w io.Writer, nodes []shadergraph.UiNode, g *graph.Graph[shadergraph.Node]) (n int, macros []string, err error) {
	b := p.scratch[:0]
	b = append(b, VersionStr...)
	b = append(b, fragmentVaryings...)
	b = append(b, '\n')
	for _, ui := range nodes {
		macro, ok := Macro(ui)
		if !ok {
			continue
		}
		macros = append(macros, macro)
		b = AppendDefineDecl(b, macro, "")
	}
	b = append(b, '\n')
	for _, u := range fragmentUniforms {
		b = AppendUniformDecl(b, u.typ, u.name)
	}
	b = append(b, '\n')
	b, err = p.appendHelpers(b)
	if err != nil {
		return 0, nil, err
	}
	b = append(b, "void main() {\n    vec3 result = vec3(1.0);\n\n"...)
	for _, id := range p.topologicalSort(nodes, g) {
		idx := slices.IndexFunc(nodes, func(u shadergraph.UiNode) bool { return u.ID == id })
		if idx < 0 {
			continue // Placeholder value nodes have no code.
		}
		b = AppendNodeCode(b, nodes[idx])
	}
	b = append(b, "    FragColor = vec4(result, 1.0);\n}\n"...)
	p.scratch = b
	n, err = w.Write(b)
	return n, macros, err
}

func (p *Programmer) appendHelpers(b []byte) ([]byte, error) {
	clear(p.names)
	for _, h := range p.helpers {
		nameHash := hash(h.Name, 0)
		bodyHash := hash(h.Source, nameHash)
		if got, conflict := p.names[nameHash]; conflict {
			if got == bodyHash {
				continue // Identical helper already written.
			}
			return b, fmt.Errorf("duplicate helper name %q with distinct body", h.Name)
		}
		p.names[nameHash] = bodyHash
		b = append(b, h.Source...)
		b = append(b, "\n\n"...)
	}
	return b, nil
}

// AppendNodeCode appends the #ifdef-guarded main-body statements of a UiNode.
// Kinds without code generation append a comment placeholder.
func AppendNodeCode(b []byte, ui shadergraph.UiNode) []byte {
	id := strconv.Itoa(ui.ID)
	b, ok := appendIfdef(b, ui)
	if !ok {
		b = append(b, "// Unsupported node type: "...)
		b = append(b, ui.Type().String()...)
		return append(b, '\n')
	}
	switch ui.Type() {
	case shadergraph.Texture:
		b = append(b, "    vec4 tex"+id+" = texture("+UniformTexture1+", TexCoords);\n"...)
		b = append(b, "    result *= tex"+id+".rgb;\n"...)
	case shadergraph.Blend:
		b = append(b, "    vec4 blendResult"+id+" = blendTextures(\n"...)
		b = append(b, "        texture("+UniformTexture1+", TexCoords),\n"...)
		b = append(b, "        texture("+UniformTexture2+", TexCoords),\n"...)
		b = append(b, "        "+UniformMixFactor+");\n"...)
		b = append(b, "    result *= blendResult"+id+".rgb;\n"...)
	case shadergraph.ColorAdjust:
		b = append(b, "    result = adjustColor(result,\n"...)
		b = append(b, "        "+UniformBrightness+",\n"...)
		b = append(b, "        "+UniformContrast+",\n"...)
		b = append(b, "        "+UniformSaturation+");\n"...)
	case shadergraph.Light:
		b = append(b, "    vec3 lightEffect"+id+" = calculateLighting(Normal, FragPos, normalize("+UniformViewPos+" - FragPos),\n"...)
		b = append(b, "        "+UniformLightPos+", "+UniformLightColor+", "+UniformLightIntensity+");\n"...)
		b = append(b, "    result *= lightEffect"+id+";\n"...)
	}
	return append(b, "#endif\n"...)
}

func appendIfdef(b []byte, ui shadergraph.UiNode) ([]byte, bool) {
	start := len(b)
	b, ok := AppendMacroName(append(b, "#ifdef "...), ui)
	if !ok {
		return b[:start], false
	}
	return append(b, '\n'), true
}

// topologicalSort returns graph node ids ordered so that every node precedes
// the nodes its edges point to. A visited set keeps shared nodes and cycles finite.
// Roots are taken from the UiNode list in order.
func (p *Programmer) topologicalSort(nodes []shadergraph.UiNode, g *graph.Graph[shadergraph.Node]) []int {
	clear(p.visited)
	clear(p.adjacency)
	p.order = p.order[:0]
	for _, e := range g.Edges() {
		p.adjacency[e.From] = append(p.adjacency[e.From], e.To)
	}
	var dfs func(id int)
	dfs = func(id int) {
		if _, ok := p.visited[id]; ok {
			return
		}
		p.visited[id] = struct{}{}
		for _, to := range p.adjacency[id] {
			dfs(to)
		}
		p.order = append(p.order, id)
	}
	for _, ui := range nodes {
		dfs(ui.ID)
	}
	slices.Reverse(p.order)
	return p.order
}


func AppendUniformDecl(b []byte, typename, name string) []byte {
	b = append(b, "uniform "...)
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, ';', '\n')
	return b
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	if aliasReplace != "" {
		b = append(b, ' ')
		b = append(b, aliasReplace...)
	}
	b = append(b, '\n')
	return b
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}
