package rules

// Graph holds nodes and their parent→children adjacency list.
// It is immutable once built; hot reload builds a new Graph and swaps it in.
type Graph struct {
	nodes    map[string]Node
	children map[string][]Node
	roots    []*RuleNode
}

// NewGraph allocates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]Node),
		children: make(map[string][]Node),
	}
}

// AddNode registers a node by its ID.
func (g *Graph) AddNode(n Node) {
	g.nodes[n.ID()] = n
	if rn, ok := n.(*RuleNode); ok {
		g.roots = append(g.roots, rn)
	}
}

// AddEdge records that parent has child as a direct successor.
func (g *Graph) AddEdge(parentID string, child Node) {
	g.children[parentID] = append(g.children[parentID], child)
}

// Node returns a node by ID (nil if not found).
func (g *Graph) Node(id string) Node {
	return g.nodes[id]
}

// Children returns the direct successors of a node.
func (g *Graph) Children(id string) []Node {
	return g.children[id]
}

// Roots returns all rule entry points in configuration order.
func (g *Graph) Roots() []*RuleNode {
	return g.roots
}

// NodeCount returns the total number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}
