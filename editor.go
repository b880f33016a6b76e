package shadergraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/shadergraph/graph"
)

var (
	// ErrOutputExists is returned when creating an output node while one already exists.
	ErrOutputExists = errors.New("output node already exists")
	// ErrUnsupportedKind is returned when creating a UiNode of a kind the editor does not offer.
	ErrUnsupportedKind = errors.New("unsupported node kind")
	// ErrInvalidLink is returned when a link does not join a value placeholder to a producer.
	ErrInvalidLink = errors.New("invalid link")
	// ErrPinOccupied is returned when linking a placeholder that already has a producer.
	ErrPinOccupied = errors.New("input already linked")
	// ErrCycle is returned when a link would make a producer depend on itself.
	ErrCycle = errors.New("link creates cycle")
	// ErrNotUiNode is returned when an id does not name a UiNode.
	ErrNotUiNode = errors.New("not a ui node")
)

const noRoot = -1

// Editor owns the graph and the UiNodes built on top of it and applies user
// actions to both. Each action either succeeds or leaves the state unchanged.
// An Editor is not safe for concurrent use.
type Editor struct {
	g     graph.Graph[Node]
	nodes []UiNode
	root  int
}

// NewEditor returns an editor with an empty graph.
func NewEditor() *Editor {
	return &Editor{root: noRoot}
}

// Graph returns the editor's graph. Callers must mutate it only through the editor.
func (ed *Editor) Graph() *graph.Graph[Node] { return &ed.g }

// Nodes returns the UiNodes in creation order. The slice must not be modified.
func (ed *Editor) Nodes() []UiNode { return ed.nodes }

// UiNode returns the UiNode whose operator id is id.
func (ed *Editor) UiNode(id int) (UiNode, bool) {
	i := ed.uiIndex(id)
	if i < 0 {
		return UiNode{}, false
	}
	return ed.nodes[i], true
}

// Root returns the id of the output node, if any.
func (ed *Editor) Root() (int, bool) { return ed.root, ed.root != noRoot }

func (ed *Editor) uiIndex(id int) int {
	return slices.IndexFunc(ed.nodes, func(u UiNode) bool { return u.ID == id })
}

// Create adds a UiNode of the given kind with its placeholder value nodes and
// default structural edges.
func (ed *Editor) Create(kind NodeType, pos ms2.Vec) (UiNode, error) {
	if kind == Output && ed.root != noRoot {
		return UiNode{}, ErrOutputExists
	}
	g := &ed.g
	value := func(v float32) int { return g.InsertNode(Node{Type: Value, Value: v}) }
	var (
		ui    = UiNode{Pos: pos}
		wired []int // Placeholders that get an op->placeholder edge.
	)
	switch kind {
	case Add, Multiply, Power:
		lhs, rhs := value(0), value(0)
		ui.ID = g.InsertNode(Node{Type: kind})
		wired = []int{lhs, rhs}
		switch kind {
		case Add:
			ui.Kind = AddKind{Lhs: lhs, Rhs: rhs}
		case Multiply:
			ui.Kind = MultiplyKind{Lhs: lhs, Rhs: rhs}
		default:
			ui.Kind = PowerKind{Lhs: lhs, Rhs: rhs}
		}
	case Output:
		r, gr, b := value(0), value(0), value(0)
		ui.ID = g.InsertNode(Node{Type: Output})
		ui.Kind = OutputKind{R: r, G: gr, B: b}
		wired = []int{r, gr, b}
	case Sine:
		in := value(0)
		ui.ID = g.InsertNode(Node{Type: Sine})
		ui.Kind = SineKind{Input: in}
		wired = []int{in}
	case Time:
		ui.ID = g.InsertNode(Node{Type: Time})
		ui.Kind = TimeKind{}
	case CubeViewport, SphereViewport:
		in := value(0)
		ui.ID = g.InsertNode(Node{Type: kind})
		if kind == CubeViewport {
			ui.Kind = CubeViewportKind{Input: in}
		} else {
			ui.Kind = SphereViewportKind{Input: in}
		}
		wired = []int{in}
	case Texture:
		handle := value(0)
		ui.ID = g.InsertNode(Node{Type: Texture})
		ui.Kind = TextureKind{Handle: handle}
		wired = []int{handle}
	case Blend:
		t1, t2, mix := value(0), value(0), value(DefaultMixFactor)
		ui.ID = g.InsertNode(Node{Type: Blend, Value: DefaultMixFactor})
		ui.Kind = BlendKind{Texture1: t1, Texture2: t2, MixFactor: mix}
		wired = []int{t1, t2}
	case ColorAdjust:
		c, br, ct, sat := value(1), value(DefaultBrightness), value(DefaultContrast), value(DefaultSaturation)
		ui.ID = g.InsertNode(Node{Type: ColorAdjust, Value: DefaultSaturation})
		ui.Kind = ColorAdjustKind{Color: c, Brightness: br, Contrast: ct, Saturation: sat}
		wired = []int{c, br, ct}
	case Light:
		ui.ID = g.InsertNode(Node{Type: Light, Value: DefaultIntensity})
		ui.Kind = LightKind{Position: DefaultLightPosition, Color: DefaultLightColor}
	default:
		return UiNode{}, fmt.Errorf("create %v: %w", kind, ErrUnsupportedKind)
	}
	for _, aux := range wired {
		if _, err := g.InsertEdge(ui.ID, aux); err != nil {
			// Unreachable with freshly inserted nodes; undo to keep the action atomic.
			ed.eraseUi(ui)
			return UiNode{}, err
		}
	}
	ed.nodes = append(ed.nodes, ui)
	if kind == Output {
		ed.root = ui.ID
	}
	Logger().Debug("create node", slog.String("kind", kind.String()), slog.Int("id", ui.ID))
	return ui, nil
}

// Link joins a value placeholder and a producing operator. The arguments may be
// given in either order: the resulting edge always goes from the placeholder to the producer.
func (ed *Editor) Link(a, b int) (int, error) {
	g := &ed.g
	na, okA := g.Node(a)
	nb, okB := g.Node(b)
	if !okA || !okB {
		return -1, fmt.Errorf("link %d-%d: %w", a, b, graph.ErrNodeNotFound)
	}
	if (na.Type == Value) == (nb.Type == Value) {
		return -1, fmt.Errorf("link %v-%v: %w", na.Type, nb.Type, ErrInvalidLink)
	}
	if na.Type != Value {
		a, b = b, a
		nb = na
	}
	if nb.Type.IsSink() {
		return -1, fmt.Errorf("link to %v: %w", nb.Type, ErrInvalidLink)
	} else if ed.uiIndex(b) < 0 {
		return -1, fmt.Errorf("link producer %d: %w", b, ErrNotUiNode)
	} else if !ed.isWiredPlaceholder(a) {
		return -1, fmt.Errorf("link placeholder %d has no consumer: %w", a, ErrInvalidLink)
	}
	if g.NumEdgesFromNode(a) > 0 {
		return -1, fmt.Errorf("placeholder %d: %w", a, ErrPinOccupied)
	}
	if _, reaches := graph.Reachable(g, b)[a]; reaches {
		return -1, fmt.Errorf("link %d->%d: %w", a, b, ErrCycle)
	}
	id, err := g.InsertEdge(a, b)
	if err != nil {
		return -1, err
	}
	Logger().Debug("link", slog.Int("from", a), slog.Int("to", b), slog.Int("edge", id))
	return id, nil
}

// isWiredPlaceholder reports whether id is a placeholder read by its owner through an edge.
func (ed *Editor) isWiredPlaceholder(id int) bool {
	for _, ui := range ed.nodes {
		if slices.Contains(ui.AuxIDs(), id) {
			return ed.g.EdgeExists(ui.ID, id)
		}
	}
	return false
}

// DeleteNodes removes the UiNodes named by ids together with their placeholders.
// Absent ids, repeated ids and ids of placeholder nodes are ignored so deleting a
// snapshot of a selection is idempotent. Returns the number of graph nodes erased.
func (ed *Editor) DeleteNodes(ids []int) int {
	erased := 0
	for _, id := range ids {
		i := ed.uiIndex(id)
		if i < 0 {
			continue
		}
		ui := ed.nodes[i]
		erased += ed.eraseUi(ui)
		ed.nodes = slices.Delete(ed.nodes, i, i+1)
		if ui.ID == ed.root {
			ed.root = noRoot
		}
		Logger().Debug("delete node", slog.String("kind", ui.Type().String()), slog.Int("id", ui.ID))
	}
	return erased
}

func (ed *Editor) eraseUi(ui UiNode) int {
	n := 0
	if ed.g.EraseNode(ui.ID) {
		n++
	}
	for _, aux := range ui.AuxIDs() {
		if ed.g.EraseNode(aux) {
			n++
		}
	}
	return n
}

// DeleteEdges erases the edges named by ids. Structural edges between an
// operator and its own placeholders are kept. Returns the number of edges erased.
func (ed *Editor) DeleteEdges(ids []int) int {
	erased := 0
	for _, id := range ids {
		e, ok := ed.g.Edge(id)
		if !ok || ed.isStructural(e) {
			continue
		}
		if ed.g.EraseEdge(id) {
			erased++
		}
	}
	return erased
}

func (ed *Editor) isStructural(e graph.Edge) bool {
	ui, ok := ed.UiNode(e.From)
	return ok && slices.Contains(ui.AuxIDs(), e.To)
}

// SetValue sets the literal of a placeholder value node. Side-channel holders
// (blend mix factor, colorAdjust saturation) are mirrored into their operator.
// Setting the value of a light operator sets its intensity.
func (ed *Editor) SetValue(id int, v float32) error {
	g := &ed.g
	n := g.NodePtr(id)
	if n == nil {
		return fmt.Errorf("set value %d: %w", id, graph.ErrNodeNotFound)
	}
	if n.Type != Value && n.Type != Light {
		return fmt.Errorf("set value of %v node %d: %w", n.Type, id, ErrUnsupportedKind)
	}
	n.Value = v
	for _, ui := range ed.nodes {
		var mirror bool
		switch k := ui.Kind.(type) {
		case BlendKind:
			mirror = k.MixFactor == id
		case ColorAdjustKind:
			mirror = k.Saturation == id
		}
		if mirror {
			g.NodePtr(ui.ID).Value = v
			break
		}
	}
	return nil
}

// Value returns the value stored in node id.
func (ed *Editor) Value(id int) (float32, bool) {
	n, ok := ed.g.Node(id)
	return n.Value, ok
}

// SetLight sets the position and color of a light UiNode.
func (ed *Editor) SetLight(id int, pos, col ms3.Vec) error {
	i := ed.uiIndex(id)
	if i < 0 {
		return fmt.Errorf("set light %d: %w", id, ErrNotUiNode)
	}
	lk, ok := ed.nodes[i].Kind.(LightKind)
	if !ok {
		return fmt.Errorf("set light on %v node: %w", ed.nodes[i].Type(), ErrUnsupportedKind)
	}
	lk.Position = pos
	lk.Color = col
	ed.nodes[i].Kind = lk
	return nil
}

// SetTexture records a loaded texture on a texture or blend UiNode.
// slot selects the blend input (0 or 1) and is ignored for texture nodes.
// The handle is stored as the value of the corresponding placeholder.
func (ed *Editor) SetTexture(id, slot int, handle uint32, path string) error {
	i := ed.uiIndex(id)
	if i < 0 {
		return fmt.Errorf("set texture %d: %w", id, ErrNotUiNode)
	}
	var holder int
	switch k := ed.nodes[i].Kind.(type) {
	case TextureKind:
		k.Path = path
		holder = k.Handle
		ed.nodes[i].Kind = k
	case BlendKind:
		switch slot {
		case 0:
			k.Path1 = path
			holder = k.Texture1
		case 1:
			k.Path2 = path
			holder = k.Texture2
		default:
			return fmt.Errorf("blend texture slot %d out of range", slot)
		}
		ed.nodes[i].Kind = k
	default:
		return fmt.Errorf("set texture on %v node: %w", ed.nodes[i].Type(), ErrUnsupportedKind)
	}
	ed.g.NodePtr(holder).Value = float32(handle)
	return nil
}

// SetPosition moves a UiNode on the canvas.
func (ed *Editor) SetPosition(id int, pos ms2.Vec) error {
	i := ed.uiIndex(id)
	if i < 0 {
		return fmt.Errorf("set position %d: %w", id, ErrNotUiNode)
	}
	ed.nodes[i].Pos = pos
	return nil
}

// OutputColor evaluates the output node. Without an output node, or when
// evaluation fails, FallbackColor is returned alongside the error.
func (ed *Editor) OutputColor(fc FrameContext) (Color, error) {
	if ed.root == noRoot {
		return FallbackColor, nil
	}
	c, err := Evaluate(&ed.g, ed.root, fc)
	if err != nil {
		return FallbackColor, err
	}
	return c, nil
}

// PruneDisconnected erases edges not reachable from the output node.
// It is a repair operation for inconsistent edge state and is a no-op without output.
func (ed *Editor) PruneDisconnected() int {
	if ed.root == noRoot {
		return 0
	}
	n := ed.g.RemoveDisconnectedEdges(ed.root)
	if n > 0 {
		Logger().Warn("pruned disconnected edges", slog.Int("count", n))
	}
	return n
}

// RemoveSelfLoops erases any edge whose endpoints coincide. The graph rejects
// these on insertion, so finding one means state was corrupted externally.
func (ed *Editor) RemoveSelfLoops() int {
	var loops []int
	for _, e := range ed.g.Edges() {
		if e.From == e.To {
			loops = append(loops, e.ID)
		}
	}
	for _, id := range loops {
		Logger().Warn("removing self-loop edge", slog.Int("edge", id))
		ed.g.EraseEdge(id)
	}
	return len(loops)
}

// Restore builds an editor from a previously saved graph and UiNode list.
// The editor takes ownership of g, which must not be used afterwards. Every UiNode's operator and placeholders must exist with matching types
// and at most one output may be present.
func Restore(nodes []UiNode, g *graph.Graph[Node]) (*Editor, error) {
	ed := &Editor{g: *g, root: noRoot, nodes: slices.Clone(nodes)}
	var errs []error
	for _, ui := range ed.nodes {
		if ui.Kind == nil {
			errs = append(errs, fmt.Errorf("ui node %d: missing kind", ui.ID))
			continue
		}
		op, ok := g.Node(ui.ID)
		if !ok {
			errs = append(errs, fmt.Errorf("ui node %d: %w", ui.ID, graph.ErrNodeNotFound))
		} else if op.Type != ui.Type() {
			errs = append(errs, fmt.Errorf("ui node %d: graph type %v, want %v", ui.ID, op.Type, ui.Type()))
		}
		for _, aux := range ui.AuxIDs() {
			n, ok := g.Node(aux)
			if !ok {
				errs = append(errs, fmt.Errorf("ui node %d placeholder %d: %w", ui.ID, aux, graph.ErrNodeNotFound))
			} else if n.Type != Value {
				errs = append(errs, fmt.Errorf("ui node %d placeholder %d is %v", ui.ID, aux, n.Type))
			}
		}
		if ui.Type() == Output {
			if ed.root != noRoot {
				errs = append(errs, ErrOutputExists)
			}
			ed.root = ui.ID
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ed, nil
}
