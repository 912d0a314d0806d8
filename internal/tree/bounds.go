package tree

import (
	"github.com/agentic-research/axtree/internal/ax"
)

// RelativeToTreeBounds maps n's bounds into the coordinate space of the
// root by walking the offset container chain. When clip is set, bounds
// are clipped by containers that clip their children. offscreen reports
// whether n lies entirely outside such a container, or has no size of
// its own and borrowed an ancestor's.
func (t *Tree) RelativeToTreeBounds(n *Node, clip bool) (bounds ax.RectF, offscreen bool) {
	if n == nil {
		return ax.RectF{}, false
	}
	return t.relativeToTreeBounds(n, clip, true)
}

// TreeBounds returns the clipped bounds of n in root coordinates.
func (t *Tree) TreeBounds(n *Node) ax.RectF {
	b, _ := t.RelativeToTreeBounds(n, true)
	return b
}

func (t *Tree) relativeToTreeBounds(n *Node, clip, allowRecursion bool) (ax.RectF, bool) {
	bounds := n.data.RelativeBounds.Bounds
	offscreen := false

	// A node without a size takes the union of its children.
	if bounds.IsEmpty() && !t.updateInProgress && allowRecursion {
		for _, c := range n.children {
			cb, _ := t.relativeToTreeBounds(c, clip, false)
			bounds.Union(cb)
		}
		if bounds.Width > 0 && bounds.Height > 0 {
			return bounds, false
		}
	}

	for node := n; node != nil; {
		if tr := node.data.RelativeBounds.Transform; tr != nil {
			bounds = tr.MapRect(bounds)
		}
		container := t.GetFromID(node.data.RelativeBounds.OffsetContainerID)
		if container == nil {
			container = t.root
		}
		if container == nil || container == node {
			break
		}

		cb := container.data.RelativeBounds.Bounds
		bounds.Offset(cb.X, cb.Y)

		sx, hasX := container.IntAttribute(ax.IntAttributeScrollX)
		sy, hasY := container.IntAttribute(ax.IntAttributeScrollY)
		if hasX && hasY {
			bounds.Offset(-float32(sx), -float32(sy))
		}

		intersection := bounds
		intersection.Intersect(cb)

		clipped := bounds
		clips := container.GetBool(ax.BoolAttributeClipsChildren)
		if clips {
			if !intersection.IsEmpty() {
				clipped = intersection
			} else {
				clipped = nearestEdge(clipped, cb)
			}
		}
		if clip {
			bounds = clipped
		}
		if clips && intersection.IsEmpty() && !clipped.IsEmpty() {
			offscreen = true
		}
		node = container
	}

	// Borrow the size of the nearest ancestor that has one.
	if bounds.Width == 0 && bounds.Height == 0 && allowRecursion {
		ancestor := n.parent
		for ancestor != nil {
			ab := ancestor.data.RelativeBounds.Bounds
			if ab.Width > 0 || ab.Height > 0 {
				break
			}
			ancestor = ancestor.parent
		}
		if ancestor != nil {
			ab, _ := t.relativeToTreeBounds(ancestor, clip, false)
			own := n.data.RelativeBounds.Bounds
			if own.X == 0 && own.Y == 0 {
				bounds = ab
			} else {
				bounds.Width = max(0, ab.Right()-bounds.X)
				bounds.Height = max(0, ab.Bottom()-bounds.Y)
			}
			offscreen = true
		}
	}
	return bounds, offscreen
}

// nearestEdge moves a rect lying wholly outside c onto the nearest edge
// or corner of c, with a minimum dimension of 1.
func nearestEdge(r, c ax.RectF) ax.RectF {
	if r.X >= c.Width {
		r.X = c.Right() - 1
		r.Width = 1
	} else if r.Right() <= 0 {
		r.X = c.X
		r.Width = 1
	}
	if r.Y >= c.Height {
		r.Y = c.Bottom() - 1
		r.Height = 1
	} else if r.Bottom() <= 0 {
		r.Y = c.Y
		r.Height = 1
	}
	return r
}
