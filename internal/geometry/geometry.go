// Package geometry maps pointer coordinates to the display that contains
// them, using scale-normalized ("effective") bounds.
package geometry

import "fmt"

// Point is a position in the compositor's shared logical coordinate space.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Rect is a half-open rectangle [Left, Right) x [Top, Bottom).
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersects reports whether two rectangles share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.Left < o.Right && o.Left < r.Right && r.Top < o.Bottom && o.Top < r.Bottom
}

// Record is one physical display as reported by the compositor. Width and
// Height are in physical pixels; X and Y are already in logical space.
type Record struct {
	ID     int
	Name   string
	X      int
	Y      int
	Width  int
	Height int
	Scale  float64
}

func (r Record) scale() float64 {
	if r.Scale <= 0 {
		return 1
	}
	return r.Scale
}

// EffectiveWidth is the logical width: pixel width divided by scale.
func (r Record) EffectiveWidth() float64 {
	return float64(r.Width) / r.scale()
}

// EffectiveHeight is the logical height: pixel height divided by scale.
func (r Record) EffectiveHeight() float64 {
	return float64(r.Height) / r.scale()
}

// Bounds returns the display's rectangle in effective coordinates.
func (r Record) Bounds() Rect {
	return Rect{
		Left:   float64(r.X),
		Top:    float64(r.Y),
		Right:  float64(r.X) + r.EffectiveWidth(),
		Bottom: float64(r.Y) + r.EffectiveHeight(),
	}
}

// Overlap names two displays whose effective bounds intersect.
type Overlap struct {
	A string
	B string
}

// Index answers point-in-display queries for one geometry snapshot.
type Index struct {
	records []Record
	bounds  []Rect
}

// NewIndex builds an index over records. Input order is preserved and
// decides which display wins when bounds overlap.
func NewIndex(records []Record) *Index {
	ix := &Index{
		records: make([]Record, len(records)),
		bounds:  make([]Rect, len(records)),
	}
	copy(ix.records, records)
	for i, r := range ix.records {
		ix.bounds[i] = r.Bounds()
	}
	return ix
}

// Locate returns the name of the first display whose bounds contain p.
func (ix *Index) Locate(p Point) (string, bool) {
	for i, b := range ix.bounds {
		if b.Contains(p) {
			return ix.records[i].Name, true
		}
	}
	return "", false
}

// Records returns the indexed displays in input order.
func (ix *Index) Records() []Record {
	out := make([]Record, len(ix.records))
	copy(out, ix.records)
	return out
}

// Overlaps lists every pair of displays with intersecting bounds. A sane
// layout has none.
func (ix *Index) Overlaps() []Overlap {
	var out []Overlap
	for i := range ix.bounds {
		for j := i + 1; j < len(ix.bounds); j++ {
			if ix.bounds[i].Intersects(ix.bounds[j]) {
				out = append(out, Overlap{A: ix.records[i].Name, B: ix.records[j].Name})
			}
		}
	}
	return out
}
