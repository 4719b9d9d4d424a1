package card

// PathBuilder is the subset of a vector canvas needed to build paths.
// *gg.Context satisfies it.
type PathBuilder interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(x1, y1, x2, y2 float64)
	ClosePath()
}

// RoundedRectPath appends a closed rounded rectangle to p, starting on the
// top edge at (x+r, y) and running clockwise. Each corner is a quadratic
// curve whose control point is the rectangle corner.
// The caller fills, strokes or clips afterward.
func RoundedRectPath(p PathBuilder, x, y, w, h, r float64) {
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.QuadraticTo(x+w, y, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.QuadraticTo(x+w, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.QuadraticTo(x, y+h, x, y+h-r)
	p.LineTo(x, y+r)
	p.QuadraticTo(x, y, x+r, y)
	p.ClosePath()
}
