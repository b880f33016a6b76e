// Package shadergraph implements the core of a node-based shader editor.
//
// An [Editor] keeps a [graph.Graph] of [Node] values and the list of [UiNode]s
// that users see and manipulate. Every UiNode owns one operator node plus the
// placeholder value nodes feeding it. The same graph is consumed by two
// independent readers: [Evaluate], a stack machine producing the preview color
// on the CPU, and the glbuild package which emits GLSL for the GPU preview.
//
// Edges point from the node that reads a value toward the node providing it.
// An operator has structural edges to its placeholders; a user link goes from a
// placeholder to the operator that overrides its literal.
package shadergraph
