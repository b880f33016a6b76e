package glbuild_test

import (
	"bytes"
	"errors"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/glbuild"
)

func TestBlendMacro(t *testing.T) {
	ed := shadergraph.NewEditor()
	for i := 0; i < 4; i++ {
		ed.Create(shadergraph.Time, ms2.Vec{}) // ids 0..3.
	}
	blend, err := ed.Create(shadergraph.Blend, ms2.Vec{}) // Placeholders 4..6.
	if err != nil {
		t.Fatal(err)
	} else if blend.ID != 7 {
		t.Fatal("expected blend id 7, got", blend.ID)
	}
	out, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out.Macros, []string{"USE_BLEND_7"}) {
		t.Error("unexpected macros", out.Macros)
	}
	if !strings.Contains(out.FragmentCode, "#define USE_BLEND_7\n") {
		t.Error("missing #define line\n", out.FragmentCode)
	}
	if !strings.Contains(out.FragmentCode, "#ifdef USE_BLEND_7\n") {
		t.Error("missing #ifdef guard\n", out.FragmentCode)
	}
	if !strings.Contains(out.FragmentCode, "blendResult7") {
		t.Error("missing blend statement")
	}
}

func TestFragmentLayout(t *testing.T) {
	ed := shadergraph.NewEditor()
	out, _ := ed.Create(shadergraph.Output, ms2.Vec{})
	add, _ := ed.Create(shadergraph.Add, ms2.Vec{})
	tex, _ := ed.Create(shadergraph.Texture, ms2.Vec{})
	adj, _ := ed.Create(shadergraph.ColorAdjust, ms2.Vec{})
	light, _ := ed.Create(shadergraph.Light, ms2.Vec{})
	ed.Link(out.Kind.(shadergraph.OutputKind).R, add.ID)
	var buf bytes.Buffer
	p := glbuild.NewDefaultProgrammer()
	n, macros, err := p.WriteFragment(&buf, ed.Nodes(), ed.Graph())
	if err != nil {
		t.Fatal(err)
	} else if n != buf.Len() {
		t.Fatal("written length mismatch")
	}
	src := buf.String()
	if !strings.HasPrefix(src, glbuild.VersionStr) {
		t.Error("missing version header")
	}
	wantMacros := []string{
		"USE_TEXTURE_" + strconv.Itoa(tex.ID),
		"USE_COLOR_ADJUST_" + strconv.Itoa(adj.ID),
		"USE_LIGHT_" + strconv.Itoa(light.ID),
	}
	if !slices.Equal(macros, wantMacros) {
		t.Errorf("got macros %v, want %v", macros, wantMacros)
	}
	for _, m := range macros {
		if strings.Count(src, "#define "+m+"\n") != 1 || strings.Count(src, "#ifdef "+m+"\n") != 1 {
			t.Errorf("macro %s not defined and guarded exactly once", m)
		}
	}
	for _, want := range []string{
		"uniform sampler2D texture1;", "uniform float saturation;", "uniform vec3 viewPos;",
		"vec3 adjustColor(", "vec4 blendTextures(", "vec3 calculateLighting(",
		"void main() {", "vec3 result = vec3(1.0);", "FragColor = vec4(result, 1.0);",
		"// Unsupported node type: output", "// Unsupported node type: add",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in\n%s", want, src)
		}
	}
	// Helpers precede main and defines precede uniforms.
	if strings.Index(src, "#define") > strings.Index(src, "uniform") ||
		strings.Index(src, "calculateLighting(") > strings.Index(src, "void main") {
		t.Error("bad section ordering")
	}
	if strings.Count(src, "#ifdef") != strings.Count(src, "#endif") {
		t.Error("unbalanced preprocessor guards")
	}
	// Output is a consumer of add so its block comes first.
	if strings.Index(src, "// Unsupported node type: output") > strings.Index(src, "// Unsupported node type: add") {
		t.Error("consumer block emitted after producer block")
	}
}

func TestNoFeatureNodes(t *testing.T) {
	ed := shadergraph.NewEditor()
	ed.Create(shadergraph.Output, ms2.Vec{})
	out, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Macros) != 0 || strings.Contains(out.FragmentCode, "#ifdef") {
		t.Error("unexpected feature code")
	}
	if out.VertexCode != glbuild.VertexSource() || !strings.Contains(out.VertexCode, "layout (location = 2) in vec2 aTexCoords;") {
		t.Error("bad vertex source")
	}
}

// Both consumers of the graph must agree on which feature nodes are active:
// every feature node the evaluator dispatches has a macro and a guarded block.
func TestEvaluatorAndGeneratorAgree(t *testing.T) {
	ed := shadergraph.NewEditor()
	out, _ := ed.Create(shadergraph.Output, ms2.Vec{})
	ok := out.Kind.(shadergraph.OutputKind)
	blend, _ := ed.Create(shadergraph.Blend, ms2.Vec{})
	adj, _ := ed.Create(shadergraph.ColorAdjust, ms2.Vec{})
	tex, _ := ed.Create(shadergraph.Texture, ms2.Vec{})
	light, _ := ed.Create(shadergraph.Light, ms2.Vec{})
	mustLink(t, ed, ok.R, blend.ID)
	mustLink(t, ed, ok.G, adj.ID)
	mustLink(t, ed, adj.Kind.(shadergraph.ColorAdjustKind).Color, tex.ID)
	mustLink(t, ed, ok.B, light.ID)

	root, _ := ed.Root()
	if _, err := shadergraph.Evaluate(ed.Graph(), root, shadergraph.FrameContext{}); err != nil {
		t.Fatal(err)
	}
	order, err := shadergraph.EvaluationOrder(ed.Graph(), root)
	if err != nil {
		t.Fatal(err)
	}
	gen, err := glbuild.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		t.Fatal(err)
	}
	active := 0
	for _, id := range order {
		ui, isUi := ed.UiNode(id)
		if !isUi {
			continue
		}
		macro, feature := glbuild.Macro(ui)
		if !feature {
			continue
		}
		active++
		if !slices.Contains(gen.Macros, macro) || !strings.Contains(gen.FragmentCode, "#ifdef "+macro) {
			t.Errorf("evaluated feature node %d has no shader block", id)
		}
	}
	if active != len(gen.Macros) {
		t.Errorf("evaluator visited %d feature nodes, generator defined %d", active, len(gen.Macros))
	}
}

func TestUniforms(t *testing.T) {
	ed := shadergraph.NewEditor()
	u := glbuild.Uniforms(ed.Nodes(), ed.Graph())
	if u != glbuild.DefaultUniforms() {
		t.Error("empty graph should give defaults")
	}
	blend, _ := ed.Create(shadergraph.Blend, ms2.Vec{})
	bk := blend.Kind.(shadergraph.BlendKind)
	ed.SetTexture(blend.ID, 0, 3, "a.png")
	ed.SetTexture(blend.ID, 1, 4, "b.png")
	ed.SetValue(bk.MixFactor, 0.75)
	tex, _ := ed.Create(shadergraph.Texture, ms2.Vec{})
	ed.SetTexture(tex.ID, 0, 9, "c.png")
	adj, _ := ed.Create(shadergraph.ColorAdjust, ms2.Vec{})
	ak := adj.Kind.(shadergraph.ColorAdjustKind)
	ed.SetValue(ak.Brightness, 0.2)
	ed.SetValue(ak.Saturation, 0.4)
	light, _ := ed.Create(shadergraph.Light, ms2.Vec{})
	ed.SetValue(light.ID, 2)
	u = glbuild.Uniforms(ed.Nodes(), ed.Graph())
	if u.Texture1 != 3 || u.Texture2 != 4 || u.MixFactor != 0.75 {
		t.Error("blend uniforms not collected", u)
	}
	if u.Brightness != 0.2 || u.Contrast != 1 || u.Saturation != 0.4 {
		t.Error("color adjust uniforms not collected", u)
	}
	if u.LightIntensity != 2 || u.LightPos != shadergraph.DefaultLightPosition {
		t.Error("light uniforms not collected", u)
	}
}

func TestHelpers(t *testing.T) {
	p := glbuild.NewDefaultProgrammer()
	fn, err := glbuild.MakeShaderFunction([]byte("  float twice(float x) { return 2.0*x; }\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(fn.Name) != "twice" {
		t.Error("bad function name", string(fn.Name))
	}
	if err := p.AddHelper(fn); err != nil {
		t.Fatal(err)
	}
	if err := p.AddHelper(fn); err != nil {
		t.Error("identical helper should be accepted", err)
	}
	conflict, _ := glbuild.MakeShaderFunction([]byte("float twice(float x) { return x+x; }"))
	if err := p.AddHelper(conflict); err == nil {
		t.Error("expected conflicting helper error")
	}
	ed := shadergraph.NewEditor()
	out, err := p.Generate(ed.Nodes(), ed.Graph())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out.FragmentCode, "float twice(") != 1 {
		t.Error("helper not written once")
	}
	if _, err := glbuild.MakeShaderFunction([]byte("garbage")); err == nil {
		t.Error("expected parse error")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestWriteError(t *testing.T) {
	ed := shadergraph.NewEditor()
	_, _, err := glbuild.NewDefaultProgrammer().WriteFragment(failWriter{}, ed.Nodes(), ed.Graph())
	if err == nil {
		t.Error("expected writer error")
	}
}

func mustLink(t *testing.T, ed *shadergraph.Editor, a, b int) {
	t.Helper()
	if _, err := ed.Link(a, b); err != nil {
		t.Fatal(err)
	}
}
