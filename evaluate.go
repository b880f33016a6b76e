package shadergraph

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/chewxy/math32"
	"github.com/soypat/shadergraph/graph"
)

var (
	// ErrStackUnderflow is returned when an operator finds fewer operands than it consumes.
	ErrStackUnderflow = errors.New("evaluation stack underflow")
	// ErrStackCount is returned when evaluation leaves an unexpected number of values on the stack.
	ErrStackCount = errors.New("unexpected evaluation stack size")
)

// Color is an evaluated output color with 8-bit channels.
type Color struct {
	R, G, B uint8
}

// RGBA returns the opaque color.RGBA equivalent of c.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255} }

func (c Color) String() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

// FallbackColor is shown when there is no output node to evaluate.
var FallbackColor = Color{R: 255, G: 20, B: 147}

// EvaluationOrder returns the order in which nodes reachable from root are
// dispatched: the reverse of the depth-first discovery order. The reachable
// subgraph must be a tree, see [graph.DepthFirst].
func EvaluationOrder(g *graph.Graph[Node], root int) ([]int, error) {
	var order []int
	err := graph.DepthFirst(g, root, func(id int) { order = append(order, id) })
	if err != nil {
		return nil, err
	}
	slices.Reverse(order)
	return order, nil
}

// Evaluate reduces the subgraph rooted at an output node to a color.
// The output's three channel inputs must each reduce to a single value.
func Evaluate(g *graph.Graph[Node], root int, fc FrameContext) (Color, error) {
	var m machine
	err := m.run(g, root, fc)
	if err != nil {
		return Color{}, err
	}
	if len(m.stack) != 3 {
		return Color{}, fmt.Errorf("%w: want 3 channels, got %d values", ErrStackCount, len(m.stack))
	}
	// Channels were pushed in r, g, b order so b is on top.
	return Color{
		R: channel(m.stack[0]),
		G: channel(m.stack[1]),
		B: channel(m.stack[2]),
	}, nil
}

// EvaluateScalar reduces the subgraph rooted at id to a single value.
// Used for viewport inputs and for inspecting intermediate operators.
func EvaluateScalar(g *graph.Graph[Node], id int, fc FrameContext) (float32, error) {
	var m machine
	err := m.run(g, id, fc)
	if err != nil {
		return 0, err
	}
	if len(m.stack) != 1 {
		return 0, fmt.Errorf("%w: want 1 value, got %d", ErrStackCount, len(m.stack))
	}
	return m.stack[0], nil
}

// channel converts a [0,1] intensity into an 8 bit channel rounding half up.
// NaN maps to 0.
func channel(x float32) uint8 {
	if math32.IsNaN(x) {
		return 0
	}
	return uint8(255*clampf(x, 0, 1) + 0.5)
}

type machine struct {
	stack []float32
}

func (m *machine) push(v float32) { m.stack = append(m.stack, v) }

func (m *machine) pop() (float32, bool) {
	n := len(m.stack)
	if n == 0 {
		return 0, false
	}
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v, true
}

// popN pops n values returning them in push order.
func (m *machine) popN(dst []float32) bool {
	n := len(dst)
	if len(m.stack) < n {
		return false
	}
	copy(dst, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return true
}

func (m *machine) run(g *graph.Graph[Node], root int, fc FrameContext) error {
	order, err := EvaluationOrder(g, root)
	if err != nil {
		return err
	}
	var args [3]float32
	for _, id := range order {
		node, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("evaluating %d: %w", id, graph.ErrNodeNotFound)
		}
		ok = true
		switch node.Type {
		case Value:
			// Connected values are supplied by their producer.
			if g.NumEdgesFromNode(id) == 0 {
				m.push(node.Value)
			}
		case Time:
			m.push(fc.Seconds)
		case Light:
			m.push(node.Value)
		case Add:
			if ok = m.popN(args[:2]); ok {
				m.push(args[0] + args[1])
			}
		case Multiply:
			if ok = m.popN(args[:2]); ok {
				m.push(args[0] * args[1])
			}
		case Power:
			if ok = m.popN(args[:2]); ok {
				m.push(math32.Pow(args[0], args[1]))
			}
		case Sine:
			var x float32
			if x, ok = m.pop(); ok {
				m.push(math32.Abs(math32.Sin(x)))
			}
		case Texture:
			var handle float32
			if handle, ok = m.pop(); ok {
				m.push(handle)
			}
		case Blend:
			if ok = m.popN(args[:2]); ok {
				mix := node.Value
				m.push(args[0]*(1-mix) + args[1]*mix)
			}
		case ColorAdjust:
			if ok = m.popN(args[:3]); ok {
				c, brightness, contrast := args[0], args[1], args[2]
				c = (c+brightness-0.5)*contrast + 0.5
				m.push(clampf(c, 0, 1) * node.Value)
			}
		case Output, CubeViewport, SphereViewport:
			// Sinks are not dispatched; their inputs remain on the stack.
		default:
			return fmt.Errorf("evaluating %d: unknown node type %v", id, node.Type)
		}
		if !ok {
			return fmt.Errorf("%w at %v node %d", ErrStackUnderflow, node.Type, id)
		}
	}
	return nil
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
