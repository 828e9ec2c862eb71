// Package presenter maps normalized analysis data onto an abstract tree of
// visual nodes. It never touches a live document.
package presenter

// NodeKind is the widget type of a node.
type NodeKind string

const (
	KindContainer NodeKind = "container"
	KindText      NodeKind = "text"
	KindRing      NodeKind = "ring"
	KindBar       NodeKind = "bar"
	KindProgress  NodeKind = "progress"
)

// Ring colors, in sentiment display order.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

// Node is one element of a RenderTree. Which fields are meaningful depends
// on Kind: rings use Label, Title, Percentage, Color and DashOffset; bars and
// progress bars use Label and Percentage; text nodes use Label.
type Node struct {
	Kind       NodeKind `json:"kind"`
	ID         string   `json:"id,omitempty"`
	Label      string   `json:"label,omitempty"`
	Title      string   `json:"title,omitempty"`
	Caption    string   `json:"caption,omitempty"`
	Percentage int      `json:"percentage"`
	Color      string   `json:"color,omitempty"`
	DashOffset float64  `json:"dash_offset,omitempty"`
	Children   []*Node  `json:"children,omitempty"`
}

// RenderTree is the complete widget tree for one analysis or message.
type RenderTree struct {
	Root *Node `json:"root"`
	// Message is set when the tree only carries a status line.
	Message string `json:"message,omitempty"`
}

// Find returns the first node with the given id in depth-first order.
func (t *RenderTree) Find(id string) *Node {
	if t == nil {
		return nil
	}
	return find(t.Root, id)
}

func find(n *Node, id string) *Node {
	if n == nil {
		return nil
	}
	if n.ID == id {
		return n
	}
	for _, c := range n.Children {
		if got := find(c, id); got != nil {
			return got
		}
	}
	return nil
}

// Walk visits every node depth-first with its depth.
func (t *RenderTree) Walk(fn func(n *Node, depth int)) {
	if t == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int)) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}
