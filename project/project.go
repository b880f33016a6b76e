// Package project saves and loads shader graph editors as JSON documents.
//
// A document lists UiNodes with their placeholder value nodes and the user
// links between placeholders and producers. Loading restores every node and
// edge id exactly so generated macro names are stable across sessions.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

// Version is the document format version written by [Save].
const Version = 1

var (
	// ErrVersion is returned when loading a document with an unknown format version.
	ErrVersion = errors.New("unsupported project version")
	// ErrBadSlot is returned when a node lacks a slot its kind requires.
	ErrBadSlot = errors.New("missing or unknown node slot")
)

// Document is the JSON projection of an editor.
type Document struct {
	Version   int          `json:"version"`
	ProjectID uuid.UUID    `json:"project_id"`
	Name      string       `json:"name,omitempty"`
	Nodes     []NodeRecord `json:"nodes"`
	Links     []LinkRecord `json:"links"`
}

// NodeRecord is a saved UiNode.
type NodeRecord struct {
	ID        int      `json:"id"`
	Type      string   `json:"type"`
	PositionX float32  `json:"position_x"`
	PositionY float32  `json:"position_y"`
	Data      NodeData `json:"data"`
}

// NodeData holds the kind-specific state of a saved UiNode.
type NodeData struct {
	// Value is the operator's own value: the blend mix factor, the color
	// adjust saturation or the light intensity.
	Value float32 `json:"value,omitempty"`
	// Slots maps slot names to placeholder value nodes.
	Slots         map[string]Slot `json:"slots,omitempty"`
	Path          string          `json:"path,omitempty"`
	Path2         string          `json:"path2,omitempty"`
	LightPosition *[3]float32     `json:"light_position,omitempty"`
	LightColor    *[3]float32     `json:"light_color,omitempty"`
}

// Slot is a saved placeholder value node.
type Slot struct {
	ID    int     `json:"id"`
	Value float32 `json:"value"`
	// EdgeID is the structural edge from the operator to the placeholder.
	// Zero for placeholders read directly by the operator, which have no edge.
	EdgeID int `json:"edge_id,omitempty"`
}

// LinkRecord is a saved user link. InputSlotID is the placeholder fed by the
// producer OutputSlotID.
type LinkRecord struct {
	ID           int `json:"id"`
	InputSlotID  int `json:"input_slot_id"`
	OutputSlotID int `json:"output_slot_id"`
}

// namedSlot pairs a slot name with a placeholder id in the kind's slot order.
type namedSlot struct {
	name string
	id   int
}

func kindSlots(k shadergraph.UiKind) []namedSlot {
	switch k := k.(type) {
	case shadergraph.AddKind:
		return []namedSlot{{"lhs", k.Lhs}, {"rhs", k.Rhs}}
	case shadergraph.MultiplyKind:
		return []namedSlot{{"lhs", k.Lhs}, {"rhs", k.Rhs}}
	case shadergraph.PowerKind:
		return []namedSlot{{"lhs", k.Lhs}, {"rhs", k.Rhs}}
	case shadergraph.OutputKind:
		return []namedSlot{{"r", k.R}, {"g", k.G}, {"b", k.B}}
	case shadergraph.SineKind:
		return []namedSlot{{"input", k.Input}}
	case shadergraph.CubeViewportKind:
		return []namedSlot{{"input", k.Input}}
	case shadergraph.SphereViewportKind:
		return []namedSlot{{"input", k.Input}}
	case shadergraph.TextureKind:
		return []namedSlot{{"handle", k.Handle}}
	case shadergraph.BlendKind:
		return []namedSlot{{"texture1", k.Texture1}, {"texture2", k.Texture2}, {"mix_factor", k.MixFactor}}
	case shadergraph.ColorAdjustKind:
		return []namedSlot{{"color", k.Color}, {"brightness", k.Brightness}, {"contrast", k.Contrast}, {"saturation", k.Saturation}}
	}
	return nil
}

// isHandleSlot reports slots holding GPU texture handles, which are not persisted.
func isHandleSlot(name string) bool {
	return name == "handle" || name == "texture1" || name == "texture2"
}

// Save projects the editor into a document. A nil project id is replaced by a new random one.
func Save(ed *shadergraph.Editor, name string, id uuid.UUID) Document {
	if id == uuid.Nil {
		id = uuid.New()
	}
	g := ed.Graph()
	doc := Document{
		Version:   Version,
		ProjectID: id,
		Name:      name,
		Nodes:     []NodeRecord{},
		Links:     []LinkRecord{},
	}
	structural := make(map[int]bool)
	for _, ui := range ed.Nodes() {
		op, _ := g.Node(ui.ID)
		rec := NodeRecord{
			ID:        ui.ID,
			Type:      ui.Type().String(),
			PositionX: ui.Pos.X,
			PositionY: ui.Pos.Y,
			Data:      NodeData{Value: op.Value},
		}
		slots := kindSlots(ui.Kind)
		if len(slots) > 0 {
			rec.Data.Slots = make(map[string]Slot, len(slots))
		}
		for _, s := range slots {
			n, _ := g.Node(s.id)
			slot := Slot{ID: s.id, Value: n.Value}
			if isHandleSlot(s.name) {
				slot.Value = 0
			}
			for _, e := range g.Edges() {
				if e.From == ui.ID && e.To == s.id {
					slot.EdgeID = e.ID
					structural[e.ID] = true
					break
				}
			}
			rec.Data.Slots[s.name] = slot
		}
		switch k := ui.Kind.(type) {
		case shadergraph.TextureKind:
			rec.Data.Path = k.Path
		case shadergraph.BlendKind:
			rec.Data.Path, rec.Data.Path2 = k.Path1, k.Path2
		case shadergraph.LightKind:
			rec.Data.LightPosition = &[3]float32{k.Position.X, k.Position.Y, k.Position.Z}
			rec.Data.LightColor = &[3]float32{k.Color.X, k.Color.Y, k.Color.Z}
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	for _, e := range g.Edges() {
		if !structural[e.ID] {
			doc.Links = append(doc.Links, LinkRecord{ID: e.ID, InputSlotID: e.From, OutputSlotID: e.To})
		}
	}
	return doc
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode reads a document from r and checks its version.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	err := json.NewDecoder(r).Decode(&doc)
	if err != nil {
		return Document{}, fmt.Errorf("decoding project: %w", err)
	}
	if doc.Version != Version {
		return Document{}, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	return doc, nil
}

// SaveFile writes the editor to the named file.
func SaveFile(filename string, ed *shadergraph.Editor, name string, id uuid.UUID) (Document, error) {
	doc := Save(ed, name, id)
	fp, err := os.Create(filename)
	if err != nil {
		return Document{}, err
	}
	defer fp.Close()
	err = Encode(fp, doc)
	if err != nil {
		return Document{}, err
	}
	return doc, fp.Sync()
}

// LoadFile reads and restores the project in the named file.
func LoadFile(filename string) (*shadergraph.Editor, Document, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, Document{}, err
	}
	defer fp.Close()
	doc, err := Decode(fp)
	if err != nil {
		return nil, Document{}, fmt.Errorf("%s: %w", filename, err)
	}
	ed, err := Load(doc)
	if err != nil {
		return nil, Document{}, fmt.Errorf("%s: %w", filename, err)
	}
	return ed, doc, nil
}

// Load restores an editor from doc with the saved node and edge ids. All
// problems found are reported together.
func Load(doc Document) (*shadergraph.Editor, error) {
	var g graph.Graph[shadergraph.Node]
	var errs []error
	nodes := make([]shadergraph.UiNode, 0, len(doc.Nodes))
	for _, rec := range doc.Nodes {
		ui, err := restoreNode(&g, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %d: %w", rec.ID, err))
			continue
		}
		nodes = append(nodes, ui)
	}
	for _, l := range doc.Links {
		in, ok := g.Node(l.InputSlotID)
		if !ok || in.Type != shadergraph.Value {
			errs = append(errs, fmt.Errorf("link %d: input slot %d is not a placeholder: %w", l.ID, l.InputSlotID, shadergraph.ErrInvalidLink))
			continue
		}
		err := g.InsertEdgeWithID(l.ID, l.InputSlotID, l.OutputSlotID)
		if err != nil {
			errs = append(errs, fmt.Errorf("link %d: %w", l.ID, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return shadergraph.Restore(nodes, &g)
}

func restoreNode(g *graph.Graph[shadergraph.Node], rec NodeRecord) (shadergraph.UiNode, error) {
	typ, err := shadergraph.ParseNodeType(rec.Type)
	if err != nil {
		return shadergraph.UiNode{}, err
	}
	ui := shadergraph.UiNode{ID: rec.ID}
	ui.Pos.X, ui.Pos.Y = rec.PositionX, rec.PositionY
	slot := func(name string) (int, error) {
		s, ok := rec.Data.Slots[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrBadSlot, name)
		}
		return s.ID, nil
	}
	ids := func(names ...string) ([]int, error) {
		out := make([]int, len(names))
		var errs []error
		for i, name := range names {
			id, serr := slot(name)
			if serr != nil {
				errs = append(errs, serr)
			}
			out[i] = id
		}
		return out, errors.Join(errs...)
	}
	var s []int
	switch typ {
	case shadergraph.Add, shadergraph.Multiply, shadergraph.Power:
		s, err = ids("lhs", "rhs")
		switch typ {
		case shadergraph.Add:
			ui.Kind = shadergraph.AddKind{Lhs: s[0], Rhs: s[1]}
		case shadergraph.Multiply:
			ui.Kind = shadergraph.MultiplyKind{Lhs: s[0], Rhs: s[1]}
		default:
			ui.Kind = shadergraph.PowerKind{Lhs: s[0], Rhs: s[1]}
		}
	case shadergraph.Output:
		s, err = ids("r", "g", "b")
		ui.Kind = shadergraph.OutputKind{R: s[0], G: s[1], B: s[2]}
	case shadergraph.Sine:
		s, err = ids("input")
		ui.Kind = shadergraph.SineKind{Input: s[0]}
	case shadergraph.Time:
		ui.Kind = shadergraph.TimeKind{}
	case shadergraph.CubeViewport:
		s, err = ids("input")
		ui.Kind = shadergraph.CubeViewportKind{Input: s[0]}
	case shadergraph.SphereViewport:
		s, err = ids("input")
		ui.Kind = shadergraph.SphereViewportKind{Input: s[0]}
	case shadergraph.Texture:
		s, err = ids("handle")
		ui.Kind = shadergraph.TextureKind{Handle: s[0], Path: rec.Data.Path}
	case shadergraph.Blend:
		s, err = ids("texture1", "texture2", "mix_factor")
		ui.Kind = shadergraph.BlendKind{Texture1: s[0], Texture2: s[1], MixFactor: s[2], Path1: rec.Data.Path, Path2: rec.Data.Path2}
	case shadergraph.ColorAdjust:
		s, err = ids("color", "brightness", "contrast", "saturation")
		ui.Kind = shadergraph.ColorAdjustKind{Color: s[0], Brightness: s[1], Contrast: s[2], Saturation: s[3]}
	case shadergraph.Light:
		lk := shadergraph.LightKind{Position: shadergraph.DefaultLightPosition, Color: shadergraph.DefaultLightColor}
		if p := rec.Data.LightPosition; p != nil {
			lk.Position.X, lk.Position.Y, lk.Position.Z = p[0], p[1], p[2]
		}
		if c := rec.Data.LightColor; c != nil {
			lk.Color.X, lk.Color.Y, lk.Color.Z = c[0], c[1], c[2]
		}
		ui.Kind = lk
	default:
		return ui, fmt.Errorf("%v: %w", typ, shadergraph.ErrUnsupportedKind)
	}
	if err != nil {
		return ui, err
	}
	// Placeholders first, then the operator, then structural edges in slot
	// order so operands are visited in the order they were created.
	slots := kindSlots(ui.Kind)
	for _, ns := range slots {
		saved := rec.Data.Slots[ns.name]
		err = g.InsertNodeWithID(ns.id, shadergraph.Node{Type: shadergraph.Value, Value: saved.Value})
		if err != nil {
			return ui, fmt.Errorf("slot %q: %w", ns.name, err)
		}
	}
	err = g.InsertNodeWithID(ui.ID, shadergraph.Node{Type: typ, Value: rec.Data.Value})
	if err != nil {
		return ui, err
	}
	for _, ns := range slots {
		saved := rec.Data.Slots[ns.name]
		if saved.EdgeID == 0 {
			continue
		}
		err = g.InsertEdgeWithID(saved.EdgeID, ui.ID, ns.id)
		if err != nil {
			return ui, fmt.Errorf("slot %q: %w", ns.name, err)
		}
	}
	return ui, nil
}
