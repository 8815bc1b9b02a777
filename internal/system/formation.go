package system

import (
	"math"
	"slices"
	"time"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/ecs"
	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
	coresys "github.com/izknhyt/kusozako-game-sub000/internal/core/system"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// FormationSystem picks followers, assigns their slots around the
// commander and tracks alignment. Phase 1 (Command), after morale.
type FormationSystem struct {
	world    *world.State
	rallied  []ranked
	ordered  []ranked
	offsets  []geom.Vec2
	followID []ranked
}

func NewFormationSystem(ws *world.State) *FormationSystem {
	return &FormationSystem{world: ws}
}

func (s *FormationSystem) Phase() coresys.Phase { return coresys.PhaseCommand }

func (s *FormationSystem) Update(dt time.Duration) {
	ws := s.world
	ft := ws.Tables.Formations
	f := &ws.Formation
	force := false

	if f.HasPending {
		f.HasPending = false
		if f.Pending != f.Kind {
			prev := f.Kind
			f.Kind = f.Pending
			f.AlignTimer = ft.AlignTime
			event.Emit(ws.Bus, event.FormationChanged{Tick: ws.Tick, Formation: f.Kind, Previous: prev})
			force = true
		}
	}
	f.AlignTimer = math.Max(0, f.AlignTimer-dt.Seconds())

	ws.Units.Each(func(_ ecs.EntityID, u *component.Unit) { u.Follower = false })

	if !ws.Commander.Alive {
		f.State, f.Progress, f.Followers = component.FormationIdle, 0, 0
		s.report(force)
		return
	}

	followers := s.selectFollowers(ft)
	f.Followers = len(followers)
	if f.Followers == 0 {
		f.State, f.Progress = component.FormationIdle, 0
		s.report(force)
		return
	}

	s.offsets = Offsets(f.Kind, ft.Shape(f.Kind), len(followers), s.offsets[:0])
	c := &ws.Commander
	bounds := ws.Tables.Map.Bounds
	misalign := 0.0
	for i, r := range followers {
		u, _ := ws.Units.Get(r.id)
		slot := c.Pos.Add(s.offsets[i].Rotate(c.Facing))
		slot = geom.ClampToWorld(slot, u.Radius, bounds)
		u.Follower = true
		u.SlotIndex = i
		u.SlotTarget = slot
		misalign += math.Min(u.Pos.Dist(slot)/ft.NormalizeDistance, 1)
	}
	// Zero progress still counts as aligning: slots are assigned and the
	// followers are moving toward them.
	f.Progress = geom.Clamp01(1 - misalign/float64(len(followers)))
	if f.Progress >= ft.LockThreshold {
		f.State = component.FormationLocked
	} else {
		f.State = component.FormationAligning
	}
	s.report(force)
}

// selectFollowers returns rallied units nearest-first, then, under the
// follow order, the remaining units nearest-first, capped at MaxFollowers.
func (s *FormationSystem) selectFollowers(ft *data.FormationTable) []ranked {
	ws := s.world
	cpos := ws.Commander.Pos
	s.rallied = s.rallied[:0]
	s.ordered = s.ordered[:0]
	following := ws.Order == component.OrderFollow
	for i := 0; i < ws.Units.Len(); i++ {
		id, u := ws.Units.At(i)
		r := ranked{id: id, dist: u.Pos.Dist(cpos)}
		switch {
		case u.Rallied:
			s.rallied = append(s.rallied, r)
		case following:
			s.ordered = append(s.ordered, r)
		}
	}
	slices.SortStableFunc(s.rallied, byDist)
	slices.SortStableFunc(s.ordered, byDist)

	s.followID = append(s.followID[:0], s.rallied...)
	s.followID = append(s.followID, s.ordered...)
	if len(s.followID) > ft.MaxFollowers {
		s.followID = s.followID[:ft.MaxFollowers]
	}
	return s.followID
}

// report emits a progress notification when the state changes, progress
// moves by more than epsilon, the follower count changes, or force is set.
func (s *FormationSystem) report(force bool) {
	ws := s.world
	f := &ws.Formation
	eps := ws.Tables.Formations.ProgressEpsilon
	if !force && f.Reported &&
		f.State == f.LastState &&
		math.Abs(f.Progress-f.LastProgress) <= eps &&
		f.Followers == f.LastFollowers {
		return
	}
	f.Reported = true
	f.LastState, f.LastProgress, f.LastFollowers = f.State, f.Progress, f.Followers
	event.Emit(ws.Bus, event.FormationProgress{
		Tick:      ws.Tick,
		Formation: f.Kind,
		State:     f.State,
		Progress:  f.Progress,
		Followers: f.Followers,
	})
}

const defaultSlotGap = 24

// Offsets appends n slot offsets for a formation to dst. Offsets are in the
// commander's local frame: +X is the facing direction, +Y its right side.
func Offsets(kind component.FormationKind, shape data.FormationShape, n int, dst []geom.Vec2) []geom.Vec2 {
	gap := shape.Spacing
	if gap <= 0 {
		gap = defaultSlotGap
	}
	switch kind {
	case component.FormationWedge:
		// Rank r (1-based) holds r slots, trailing behind the commander.
		for i, rank := 0, 1; i < n; rank++ {
			for j := 0; j < rank && i < n; j, i = j+1, i+1 {
				y := (float64(j) - float64(rank-1)/2) * gap
				dst = append(dst, geom.V(-float64(rank)*gap, y))
			}
		}
	case component.FormationLine:
		half := float64(n-1) / 2
		for i := 0; i < n; i++ {
			dst = append(dst, geom.V(-gap, (float64(i)-half)*gap))
		}
	default: // swarm, ring
		r := shape.Radius
		if r <= 0 {
			r = 2 * gap
		}
		r = math.Max(r, float64(n)*gap/(2*math.Pi))
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			dst = append(dst, geom.FromAngle(a).Scale(r))
		}
	}
	return dst
}
