package markup

// Cursor locates a node during Walk. Parent is nil for the root.
type Cursor struct {
	Parent Parent
	Index  int
	Node   Node

	skip bool
}

// Replace swaps the current node for n in its parent. The walk continues
// into n's children.
func (c *Cursor) Replace(n Node) {
	if c.Parent != nil {
		c.Parent.SetChild(c.Index, n)
	}
	c.Node = n
}

// SkipChildren stops the walk from descending below the current node.
func (c *Cursor) SkipChildren() {
	c.skip = true
}

// Walk visits root and its descendants depth-first in pre-order. The child
// list of a node is read after the node itself has been visited, so a
// visitor may rewrite it. The tree must be acyclic.
func Walk(root Node, visit func(c *Cursor)) {
	walk(&Cursor{Node: root, Index: -1}, visit)
}

func walk(c *Cursor, visit func(*Cursor)) {
	visit(c)
	if c.skip {
		return
	}
	p, ok := c.Node.(Parent)
	if !ok {
		return
	}
	for i := 0; i < len(p.ChildNodes()); i++ {
		walk(&Cursor{Parent: p, Index: i, Node: p.ChildNodes()[i]}, visit)
	}
}

// Elements calls fn for every element in the subtree rooted at root.
func Elements(root Node, fn func(c *Cursor, el *Element)) {
	Walk(root, func(c *Cursor) {
		if el, ok := c.Node.(*Element); ok {
			fn(c, el)
		}
	})
}
