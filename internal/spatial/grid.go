// Package spatial is the uniform-grid broad phase rebuilt every tick for
// walls, enemies and allies.
package spatial

import (
	"math"

	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
)

// Layer selects one of the grid's bucket sets.
type Layer int

const (
	LayerUnits Layer = iota
	LayerEnemies
	LayerWalls
	layerCount
)

// Grid maps world cells to the dense pool indices whose bounding circles
// overlap them. Indices are only meaningful for the tick the grid was
// filled in.
type Grid struct {
	bounds   geom.Rect
	cellSize float64
	cols     int
	rows     int
	buckets  [layerCount][][]int32
}

func NewGrid() *Grid { return &Grid{} }

// Configure sets the grid geometry. Buckets are only reallocated when the
// bounds or cell size actually change.
func (g *Grid) Configure(min, max geom.Vec2, cellSize float64) {
	if cellSize <= 0 {
		cellSize = 1
	}
	bounds := geom.Rect{Min: min, Max: max}
	if g.cols > 0 && bounds == g.bounds && cellSize == g.cellSize {
		return
	}
	g.bounds = bounds
	g.cellSize = cellSize
	g.cols = max1(int(math.Ceil(bounds.Width() / cellSize)))
	g.rows = max1(int(math.Ceil(bounds.Height() / cellSize)))
	n := g.cols * g.rows
	for l := range g.buckets {
		g.buckets[l] = make([][]int32, n)
	}
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Clear empties every bucket but keeps their capacity.
func (g *Grid) Clear() {
	for l := range g.buckets {
		for i := range g.buckets[l] {
			g.buckets[l][i] = g.buckets[l][i][:0]
		}
	}
}

func (g *Grid) Cols() int         { return g.cols }
func (g *Grid) Rows() int         { return g.rows }
func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Bounds() geom.Rect { return g.bounds }

func (g *Grid) col(x float64) int {
	c := int(math.Floor((x - g.bounds.Min.X) / g.cellSize))
	return clampInt(c, 0, g.cols-1)
}

func (g *Grid) row(y float64) int {
	r := int(math.Floor((y - g.bounds.Min.Y) / g.cellSize))
	return clampInt(r, 0, g.rows-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// cellRange returns the inclusive cell rectangle covered by a circle's
// bounding square. Positions outside the grid clamp to the border cells.
func (g *Grid) cellRange(pos geom.Vec2, radius float64) (c0, r0, c1, r1 int) {
	if radius < 0 {
		radius = 0
	}
	return g.col(pos.X - radius), g.row(pos.Y - radius), g.col(pos.X + radius), g.row(pos.Y + radius)
}

func (g *Grid) insert(l Layer, index int, pos geom.Vec2, radius float64) {
	if g.cols == 0 {
		return
	}
	c0, r0, c1, r1 := g.cellRange(pos, radius)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			cell := r*g.cols + c
			g.buckets[l][cell] = append(g.buckets[l][cell], int32(index))
		}
	}
}

func (g *Grid) InsertUnit(index int, pos geom.Vec2, radius float64) {
	g.insert(LayerUnits, index, pos, radius)
}

func (g *Grid) InsertEnemy(index int, pos geom.Vec2, radius float64) {
	g.insert(LayerEnemies, index, pos, radius)
}

func (g *Grid) InsertWall(index int, pos geom.Vec2, radius float64) {
	g.insert(LayerWalls, index, pos, radius)
}

// QueryCells appends the indices of every cell overlapping the query
// circle's bounding square to dst.
func (g *Grid) QueryCells(pos geom.Vec2, radius float64, dst []int) []int {
	if g.cols == 0 {
		return dst
	}
	c0, r0, c1, r1 := g.cellRange(pos, radius)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			dst = append(dst, r*g.cols+c)
		}
	}
	return dst
}

// Bucket returns the indices stored in one cell of a layer. The slice is
// owned by the grid.
func (g *Grid) Bucket(l Layer, cell int) []int32 {
	return g.buckets[l][cell]
}

// Candidates appends each index of layer l whose cells overlap the query
// circle exactly once to dst. The result is a superset of the true
// neighbours; callers filter by exact distance. stamp provides the dedup
// marks and must be sized for the layer's pool.
func (g *Grid) Candidates(l Layer, pos geom.Vec2, radius float64, stamp *Stamp, dst []int32) []int32 {
	if g.cols == 0 {
		return dst
	}
	stamp.Next()
	c0, r0, c1, r1 := g.cellRange(pos, radius)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, idx := range g.buckets[l][r*g.cols+c] {
				if stamp.Mark(int(idx)) {
					dst = append(dst, idx)
				}
			}
		}
	}
	return dst
}
