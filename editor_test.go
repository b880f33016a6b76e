package shadergraph_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

func TestCreateDefaults(t *testing.T) {
	ed := shadergraph.NewEditor()
	for _, test := range []struct {
		kind     shadergraph.NodeType
		aux      int
		edges    int
		opValue  float32
		auxValue []float32
	}{
		{kind: shadergraph.Add, aux: 2, edges: 2, auxValue: []float32{0, 0}},
		{kind: shadergraph.Multiply, aux: 2, edges: 2, auxValue: []float32{0, 0}},
		{kind: shadergraph.Power, aux: 2, edges: 2, auxValue: []float32{0, 0}},
		{kind: shadergraph.Output, aux: 3, edges: 3, auxValue: []float32{0, 0, 0}},
		{kind: shadergraph.Sine, aux: 1, edges: 1, auxValue: []float32{0}},
		{kind: shadergraph.Time},
		{kind: shadergraph.CubeViewport, aux: 1, edges: 1, auxValue: []float32{0}},
		{kind: shadergraph.SphereViewport, aux: 1, edges: 1, auxValue: []float32{0}},
		{kind: shadergraph.Texture, aux: 1, edges: 1, auxValue: []float32{0}},
		{kind: shadergraph.Blend, aux: 3, edges: 2, opValue: 0.5, auxValue: []float32{0, 0, 0.5}},
		{kind: shadergraph.ColorAdjust, aux: 4, edges: 3, opValue: 1, auxValue: []float32{1, 0, 1, 1}},
		{kind: shadergraph.Light, opValue: 1},
	} {
		ui, err := ed.Create(test.kind, ms2.Vec{X: 1, Y: 2})
		if err != nil {
			t.Fatal(test.kind, err)
		}
		if ui.Type() != test.kind {
			t.Errorf("%v: got type %v", test.kind, ui.Type())
		}
		aux := ui.AuxIDs()
		if len(aux) != test.aux {
			t.Errorf("%v: got %d placeholders, want %d", test.kind, len(aux), test.aux)
		}
		g := ed.Graph()
		if got := g.NumEdgesFromNode(ui.ID); got != test.edges {
			t.Errorf("%v: got %d structural edges, want %d", test.kind, got, test.edges)
		}
		if v, _ := ed.Value(ui.ID); v != test.opValue {
			t.Errorf("%v: operator value %g, want %g", test.kind, v, test.opValue)
		}
		for i, id := range aux {
			n, ok := g.Node(id)
			if !ok || n.Type != shadergraph.Value || n.Value != test.auxValue[i] {
				t.Errorf("%v: placeholder %d is %+v, want value %g", test.kind, i, n, test.auxValue[i])
			}
		}
	}
	light := ed.Nodes()[len(ed.Nodes())-1].Kind.(shadergraph.LightKind)
	if light.Position != shadergraph.DefaultLightPosition || light.Color != shadergraph.DefaultLightColor {
		t.Error("bad light defaults", light)
	}
	if _, err := ed.Create(shadergraph.Value, ms2.Vec{}); !errors.Is(err, shadergraph.ErrUnsupportedKind) {
		t.Error("expected unsupported kind for bare value, got", err)
	}
}

func TestSingleOutput(t *testing.T) {
	ed := shadergraph.NewEditor()
	if _, ok := ed.Root(); ok {
		t.Fatal("new editor has root")
	}
	out, err := ed.Create(shadergraph.Output, ms2.Vec{})
	if err != nil {
		t.Fatal(err)
	}
	nodesBefore := ed.Graph().NumNodes()
	_, err = ed.Create(shadergraph.Output, ms2.Vec{})
	if !errors.Is(err, shadergraph.ErrOutputExists) {
		t.Error("expected output exists, got", err)
	}
	if ed.Graph().NumNodes() != nodesBefore {
		t.Error("refused creation mutated graph")
	}
	if root, _ := ed.Root(); root != out.ID {
		t.Error("root not tracking output")
	}
	if ed.DeleteNodes([]int{out.ID}) != 4 {
		t.Error("output delete should erase 4 nodes")
	}
	if _, ok := ed.Root(); ok {
		t.Error("root survived output deletion")
	}
	if _, err := ed.Create(shadergraph.Output, ms2.Vec{}); err != nil {
		t.Error("could not create output after deletion:", err)
	}
	c, err := shadergraph.NewEditor().OutputColor(shadergraph.FrameContext{})
	if err != nil || c != shadergraph.FallbackColor {
		t.Error("expected fallback color without output")
	}
}

func TestDeleteAddCascade(t *testing.T) {
	ed, out := newOutput(t, 0, 0, 0)
	add := binop(t, ed, shadergraph.Add, 0.1, 0.2, out.R)
	sine, _ := ed.Create(shadergraph.Sine, ms2.Vec{})
	ak := add.Kind.(shadergraph.AddKind)
	if _, err := ed.Link(ak.Lhs, sine.ID); err != nil {
		t.Fatal(err)
	}
	g := ed.Graph()
	nodesBefore, edgesBefore := g.NumNodes(), g.NumEdges()
	removed := ed.DeleteNodes([]int{add.ID})
	if removed != 3 {
		t.Fatal("want 3 nodes removed, got", removed)
	}
	if g.NumNodes() != nodesBefore-3 {
		t.Error("node count mismatch")
	}
	// 2 structural edges, link out.R->add and link lhs->sine.
	if g.NumEdges() != edgesBefore-4 {
		t.Errorf("got %d edges, want %d", g.NumEdges(), edgesBefore-4)
	}
	for _, id := range []int{add.ID, ak.Lhs, ak.Rhs} {
		if g.NodeExists(id) {
			t.Error("node survived cascade", id)
		}
	}
	for _, e := range g.Edges() {
		if !g.NodeExists(e.From) || !g.NodeExists(e.To) {
			t.Error("dangling edge", e)
		}
	}
	if g.NumEdgesFromNode(out.R) != 0 {
		t.Error("output channel still linked")
	}
	if _, ok := ed.UiNode(add.ID); ok {
		t.Error("ui node survived")
	}
	if !g.NodeExists(sine.ID) {
		t.Error("linked producer erased")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	build := func() (*shadergraph.Editor, int) {
		ed, out := newOutput(t, 0, 0, 0)
		add := binop(t, ed, shadergraph.Add, 0.1, 0.2, out.R)
		binop(t, ed, shadergraph.Multiply, 0.1, 0.2, out.G)
		return ed, add.ID
	}
	once, id := build()
	once.DeleteNodes([]int{id})
	twice, id := build()
	lhs := twice.Nodes()[1].AuxIDs()[0]
	twice.DeleteNodes([]int{id, id, lhs, 12345})
	twice.DeleteNodes([]int{id})
	if !slices.Equal(once.Graph().NodeIDs(), twice.Graph().NodeIDs()) {
		t.Error("node sets differ", once.Graph().NodeIDs(), twice.Graph().NodeIDs())
	}
	if !slices.Equal(once.Graph().Edges(), twice.Graph().Edges()) {
		t.Error("edge sets differ")
	}
	if len(once.Nodes()) != len(twice.Nodes()) {
		t.Error("ui node counts differ")
	}
}

func TestLinkValidation(t *testing.T) {
	ed, _ := newOutput(t, 0, 0, 0)
	root, _ := ed.Root()
	add, _ := ed.Create(shadergraph.Add, ms2.Vec{})
	mul, _ := ed.Create(shadergraph.Multiply, ms2.Vec{})
	blend, _ := ed.Create(shadergraph.Blend, ms2.Vec{})
	ak := add.Kind.(shadergraph.AddKind)
	mk := mul.Kind.(shadergraph.MultiplyKind)
	for _, test := range []struct {
		name string
		a, b int
		want error
	}{
		{name: "value-value", a: ak.Lhs, b: mk.Lhs, want: shadergraph.ErrInvalidLink},
		{name: "op-op", a: add.ID, b: mul.ID, want: shadergraph.ErrInvalidLink},
		{name: "to sink", a: ak.Lhs, b: root, want: shadergraph.ErrInvalidLink},
		{name: "own input", a: ak.Lhs, b: add.ID, want: shadergraph.ErrCycle},
		{name: "side channel", a: blend.Kind.(shadergraph.BlendKind).MixFactor, b: add.ID, want: shadergraph.ErrInvalidLink},
		{name: "missing", a: ak.Lhs, b: 999, want: graph.ErrNodeNotFound},
	} {
		edges := ed.Graph().NumEdges()
		_, err := ed.Link(test.a, test.b)
		if !errors.Is(err, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, err, test.want)
		}
		if ed.Graph().NumEdges() != edges {
			t.Errorf("%s: failed link mutated graph", test.name)
		}
	}
	// Either argument order yields placeholder->producer.
	id, err := ed.Link(mul.ID, ak.Lhs)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := ed.Graph().Edge(id)
	if e.From != ak.Lhs || e.To != mul.ID {
		t.Error("link not normalized", e)
	}
	if _, err := ed.Link(ak.Lhs, mul.ID); !errors.Is(err, shadergraph.ErrPinOccupied) {
		t.Error("expected occupied pin, got", err)
	}
	// mul feeds add, so linking add into mul's input closes a loop.
	if _, err := ed.Link(mk.Rhs, add.ID); !errors.Is(err, shadergraph.ErrCycle) {
		t.Error("expected cycle, got", err)
	}
}

func TestDeleteEdges(t *testing.T) {
	ed, out := newOutput(t, 0, 0, 0)
	add, _ := ed.Create(shadergraph.Add, ms2.Vec{})
	link, err := ed.Link(out.R, add.ID)
	if err != nil {
		t.Fatal(err)
	}
	var structural []int
	for _, e := range ed.Graph().Edges() {
		if e.From == add.ID {
			structural = append(structural, e.ID)
		}
	}
	if n := ed.DeleteEdges(append(structural, link, link, 999)); n != 1 {
		t.Error("want 1 edge erased, got", n)
	}
	if ed.Graph().NumEdgesFromNode(add.ID) != 2 {
		t.Error("structural edges erased")
	}
	if ed.Graph().EdgeExists(out.R, add.ID) {
		t.Error("link survived")
	}
}

func TestSetters(t *testing.T) {
	ed := shadergraph.NewEditor()
	light, _ := ed.Create(shadergraph.Light, ms2.Vec{})
	pos, col := ms3.Vec{X: 1, Y: 2, Z: 3}, ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	if err := ed.SetLight(light.ID, pos, col); err != nil {
		t.Fatal(err)
	}
	if err := ed.SetValue(light.ID, 3); err != nil {
		t.Fatal(err)
	}
	got, _ := ed.UiNode(light.ID)
	if lk := got.Kind.(shadergraph.LightKind); lk.Position != pos || lk.Color != col {
		t.Error("light not updated", lk)
	}
	if v, _ := ed.Value(light.ID); v != 3 {
		t.Error("light intensity not set", v)
	}

	adj, _ := ed.Create(shadergraph.ColorAdjust, ms2.Vec{})
	if err := ed.SetValue(adj.Kind.(shadergraph.ColorAdjustKind).Saturation, 0.25); err != nil {
		t.Fatal(err)
	}
	if v, _ := ed.Value(adj.ID); v != 0.25 {
		t.Error("saturation not mirrored", v)
	}
	if err := ed.SetValue(adj.ID, 1); !errors.Is(err, shadergraph.ErrUnsupportedKind) {
		t.Error("expected error setting operator value, got", err)
	}

	blend, _ := ed.Create(shadergraph.Blend, ms2.Vec{})
	if err := ed.SetTexture(blend.ID, 1, 7, "b.png"); err != nil {
		t.Fatal(err)
	}
	bk := blend.Kind.(shadergraph.BlendKind)
	if v, _ := ed.Value(bk.Texture2); v != 7 {
		t.Error("texture handle not stored", v)
	}
	got, _ = ed.UiNode(blend.ID)
	if got.Kind.(shadergraph.BlendKind).Path2 != "b.png" {
		t.Error("path not stored")
	}
	if err := ed.SetTexture(blend.ID, 2, 7, ""); err == nil {
		t.Error("expected slot range error")
	}
	if err := ed.SetTexture(light.ID, 0, 7, ""); !errors.Is(err, shadergraph.ErrUnsupportedKind) {
		t.Error("expected unsupported kind, got", err)
	}
	if err := ed.SetPosition(blend.ID, ms2.Vec{X: 5}); err != nil {
		t.Error(err)
	}
}

func TestPruneDisconnected(t *testing.T) {
	ed, out := newOutput(t, 0, 0, 0)
	binop(t, ed, shadergraph.Add, 0.1, 0.3, out.R)
	orphan, _ := ed.Create(shadergraph.Multiply, ms2.Vec{})
	edges := ed.Graph().NumEdges()
	if n := ed.PruneDisconnected(); n != 2 {
		t.Error("want 2 orphan edges pruned, got", n)
	}
	if ed.Graph().NumEdges() != edges-2 || ed.Graph().NumEdgesFromNode(orphan.ID) != 0 {
		t.Error("orphan edges not pruned")
	}
	if ed.RemoveSelfLoops() != 0 {
		t.Error("found self loops in consistent graph")
	}
	if c := evaluate(t, ed, shadergraph.FrameContext{}); c.R != 102 {
		t.Error("pruning changed evaluation", c)
	}
}

func TestRestore(t *testing.T) {
	ed, out := newOutput(t, 0, 0, 0)
	outID, _ := ed.Root()
	binop(t, ed, shadergraph.Add, 0.2, 0.3, out.R)
	g := *ed.Graph()
	restored, err := shadergraph.Restore(ed.Nodes(), &g)
	if err != nil {
		t.Fatal(err)
	}
	if root, ok := restored.Root(); !ok || root != outID {
		t.Error("root not restored")
	}
	c, err := restored.OutputColor(shadergraph.FrameContext{})
	if err != nil || c.R != 128 {
		t.Error("restored editor evaluates differently", c, err)
	}
	bad := []shadergraph.UiNode{{ID: 999, Kind: shadergraph.TimeKind{}}, {ID: outID, Kind: shadergraph.AddKind{Lhs: out.R, Rhs: outID}}}
	g2 := *ed.Graph()
	if _, err := shadergraph.Restore(bad, &g2); err == nil {
		t.Error("expected restore validation errors")
	}
}
