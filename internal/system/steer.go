package system

import (
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/spatial"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// arrive steers toward target at speed, slowing so it stops on the target
// within one step.
func arrive(from, target geom.Vec2, speed, dt float64) geom.Vec2 {
	d := target.Sub(from)
	dist := d.Len()
	if dist == 0 || speed <= 0 {
		return geom.Vec2{}
	}
	if dt > 0 && dist/dt < speed {
		speed = dist / dt
	}
	return d.Scale(speed / dist)
}

// away steers directly away from threat. A threat on top of the unit gives
// no direction.
func away(from, threat geom.Vec2, speed float64) geom.Vec2 {
	return from.Sub(threat).Norm().Scale(speed)
}

// nearestEnemy returns the dense index of the enemy whose centre is closest
// to pos and within radius, or -1. radius <= 0 searches every enemy. match
// filters candidates when non-nil.
func nearestEnemy(ws *world.State, pos geom.Vec2, radius float64, buf *[]int32, match func(i int) bool) int {
	best, bestD := -1, 0.0
	consider := func(i int) {
		if match != nil && !match(i) {
			return
		}
		_, e := ws.Enemies.At(i)
		d := e.Pos.DistSq(pos)
		if radius > 0 && d > radius*radius {
			return
		}
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	if radius <= 0 {
		for i := 0; i < ws.Enemies.Len(); i++ {
			consider(i)
		}
		return best
	}
	*buf = ws.Near(spatial.LayerEnemies, pos, radius, (*buf)[:0])
	for _, i := range *buf {
		consider(int(i))
	}
	return best
}
