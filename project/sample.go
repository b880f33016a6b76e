package project

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/shadergraph"
)

// Sample returns a small editor graph: the output red channel pulses with
// |sin(t)|, green is a constant, blue comes from a color adjust node and the
// cube preview spins with time. A blend and a light node feed the preview
// uniforms.
func Sample() (*shadergraph.Editor, error) {
	ed := shadergraph.NewEditor()
	var err error
	create := func(kind shadergraph.NodeType, x, y float32) shadergraph.UiNode {
		if err != nil {
			return shadergraph.UiNode{}
		}
		var ui shadergraph.UiNode
		ui, err = ed.Create(kind, ms2.Vec{X: x, Y: y})
		return ui
	}
	link := func(placeholder, producer int) {
		if err == nil {
			_, err = ed.Link(placeholder, producer)
		}
	}
	set := func(id int, v float32) {
		if err == nil {
			err = ed.SetValue(id, v)
		}
	}

	out := create(shadergraph.Output, 600, 200)
	add := create(shadergraph.Add, 400, 80)
	sine := create(shadergraph.Sine, 200, 80)
	clock := create(shadergraph.Time, 0, 80)
	adjust := create(shadergraph.ColorAdjust, 400, 320)
	blend := create(shadergraph.Blend, 200, 420)
	light := create(shadergraph.Light, 200, 560)
	cube := create(shadergraph.CubeViewport, 400, 560)
	spin := create(shadergraph.Time, 200, 680)
	if err != nil {
		return nil, err
	}
	ok := out.Kind.(shadergraph.OutputKind)
	ak := add.Kind.(shadergraph.AddKind)
	ck := adjust.Kind.(shadergraph.ColorAdjustKind)
	link(ok.R, add.ID)
	link(ak.Rhs, sine.ID)
	link(sine.Kind.(shadergraph.SineKind).Input, clock.ID)
	link(ok.B, adjust.ID)
	link(cube.Kind.(shadergraph.CubeViewportKind).Input, spin.ID)
	set(ak.Lhs, 0.1)
	set(ok.G, 0.5)
	set(ck.Color, 0.6)
	set(ck.Brightness, 0.1)
	set(ck.Contrast, 1.2)
	set(blend.Kind.(shadergraph.BlendKind).MixFactor, 0.5)
	set(light.ID, 1.5)
	if err != nil {
		return nil, err
	}
	return ed, nil
}
