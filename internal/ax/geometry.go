package ax

import (
	"fmt"
	"math"
)

// RectF is a float rectangle with its origin at the top left.
type RectF struct {
	X      float32 `json:"x" msgpack:"x"`
	Y      float32 `json:"y" msgpack:"y"`
	Width  float32 `json:"width" msgpack:"w"`
	Height float32 `json:"height" msgpack:"h"`
}

func (r RectF) Right() float32  { return r.X + r.Width }
func (r RectF) Bottom() float32 { return r.Y + r.Height }

// IsEmpty reports whether the rectangle covers no area.
func (r RectF) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// IsZero reports whether every field is zero.
func (r RectF) IsZero() bool { return r == RectF{} }

func (r RectF) String() string {
	return fmt.Sprintf("(%g, %g) size (%g x %g)", r.X, r.Y, r.Width, r.Height)
}

// Offset translates r by (dx, dy).
func (r *RectF) Offset(dx, dy float32) {
	r.X += dx
	r.Y += dy
}

// Union grows r to cover o. Empty rectangles contribute nothing.
func (r *RectF) Union(o RectF) {
	if o.IsEmpty() {
		return
	}
	if r.IsEmpty() {
		*r = o
		return
	}
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	right := max(r.Right(), o.Right())
	bottom := max(r.Bottom(), o.Bottom())
	*r = RectF{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Intersect shrinks r to its overlap with o, or to the zero rect.
func (r *RectF) Intersect(o RectF) {
	x := max(r.X, o.X)
	y := max(r.Y, o.Y)
	right := min(r.Right(), o.Right())
	bottom := min(r.Bottom(), o.Bottom())
	if x >= right || y >= bottom {
		*r = RectF{}
		return
	}
	*r = RectF{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Intersects reports whether r and o overlap.
func (r RectF) Intersects(o RectF) bool {
	return !r.IsEmpty() && !o.IsEmpty() &&
		r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Transform is a 2D scale followed by a translation.
type Transform struct {
	ScaleX     float32 `json:"scale_x" msgpack:"sx"`
	ScaleY     float32 `json:"scale_y" msgpack:"sy"`
	TranslateX float32 `json:"translate_x" msgpack:"tx"`
	TranslateY float32 `json:"translate_y" msgpack:"ty"`
}

// Identity returns the transform that maps every point onto itself.
func Identity() Transform { return Transform{ScaleX: 1, ScaleY: 1} }

func (t Transform) IsIdentity() bool { return t == Identity() }

// MapRect returns the bounding box of r after applying t.
func (t Transform) MapRect(r RectF) RectF {
	x0 := r.X*t.ScaleX + t.TranslateX
	x1 := r.Right()*t.ScaleX + t.TranslateX
	y0 := r.Y*t.ScaleY + t.TranslateY
	y1 := r.Bottom()*t.ScaleY + t.TranslateY
	return RectF{
		X:      min(x0, x1),
		Y:      min(y0, y1),
		Width:  float32(math.Abs(float64(x1 - x0))),
		Height: float32(math.Abs(float64(y1 - y0))),
	}
}

// RelativeBounds places a node relative to its offset container, or to
// the root when OffsetContainerID is invalid.
type RelativeBounds struct {
	OffsetContainerID NodeID     `json:"offset_container_id,omitempty" msgpack:"container,omitempty"`
	Bounds            RectF      `json:"bounds" msgpack:"bounds"`
	Transform         *Transform `json:"transform,omitempty" msgpack:"transform,omitempty"`
}

func (b *RelativeBounds) Equal(o *RelativeBounds) bool {
	if b.OffsetContainerID != o.OffsetContainerID || b.Bounds != o.Bounds {
		return false
	}
	if (b.Transform == nil) != (o.Transform == nil) {
		return false
	}
	return b.Transform == nil || *b.Transform == *o.Transform
}
