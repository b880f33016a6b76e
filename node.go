package shadergraph

import (
	"fmt"
	"strconv"
)

// NodeType enumerates the kinds of graph nodes.
type NodeType uint8

const (
	// Value nodes hold a literal unless an edge leaves them toward a producer.
	Value NodeType = iota
	Add
	Multiply
	Sine
	Time
	Power
	// Output is the sink whose three inputs are the red, green and blue channels.
	Output
	Texture
	Blend
	ColorAdjust
	Light
	CubeViewport
	SphereViewport
	numNodeTypes
)

var nodeTypeNames = [numNodeTypes]string{
	Value:          "value",
	Add:            "add",
	Multiply:       "multiply",
	Sine:           "sine",
	Time:           "time",
	Power:          "power",
	Output:         "output",
	Texture:        "texture",
	Blend:          "blend",
	ColorAdjust:    "colorAdjust",
	Light:          "light",
	CubeViewport:   "cubeviewport",
	SphereViewport: "sphereviewport",
}

func (t NodeType) String() string {
	if t < numNodeTypes {
		return nodeTypeNames[t]
	}
	return "NodeType(" + strconv.Itoa(int(t)) + ")"
}

// ParseNodeType is the inverse of [NodeType.String].
func ParseNodeType(s string) (NodeType, error) {
	for i, name := range nodeTypeNames {
		if name == s {
			return NodeType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// IsSink reports whether nodes of this type consume values but produce none.
func (t NodeType) IsSink() bool {
	return t == Output || t == CubeViewport || t == SphereViewport
}

// Node is the plain data stored in the graph for every node.
// Operators reuse Value as a side-channel scalar: blend stores its mix factor,
// colorAdjust its saturation and light its intensity.
type Node struct {
	Type  NodeType
	Value float32
}
