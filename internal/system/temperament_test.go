package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/izknhyt/kusozako-game-sub000/internal/component"
	"github.com/izknhyt/kusozako-game-sub000/internal/data"
	"github.com/izknhyt/kusozako-game-sub000/internal/geom"
	"github.com/izknhyt/kusozako-game-sub000/internal/world"
)

// soloUnit builds a world whose allies all share def, parks them, and
// returns the first one for staging.
func soloUnit(t *testing.T, tables *data.Tables, def data.TemperamentDef) (*world.State, *component.Unit, *component.TemperamentState) {
	t.Helper()
	if tables == nil {
		tables = testTables()
	}
	def.SpawnRate = 1
	tables.Temperaments = data.NewTemperamentTable([]data.TemperamentDef{def})
	ws := newTestWorld(t, tables)
	parkUnits(ws)
	id, u := ws.Units.At(0)
	ts, ok := ws.Temperaments.Get(id)
	require.True(t, ok)
	return ws, u, ts
}

func slimeAt(ws *world.State, p geom.Vec2) *component.Enemy {
	id := ws.SpawnEnemy(ws.Tables.Units.Enemy("slime"), p)
	e, _ := ws.Enemies.Get(id)
	return e
}

func assertHeading(t *testing.T, want, got geom.Vec2, speed float64) {
	t.Helper()
	w := want.Norm()
	assert.InDelta(t, w.X, got.Norm().X, 1e-6)
	assert.InDelta(t, w.Y, got.Norm().Y, 1e-6)
	assert.InDelta(t, speed, got.Len(), 1e-6)
}

func TestTemperamentVelocities(t *testing.T) {
	tests := []struct {
		name  string
		def   data.TemperamentDef
		setup func(ws *world.State, u *component.Unit)
		check func(t *testing.T, ws *world.State, u *component.Unit, ts *component.TemperamentState)
	}{
		{
			name: "flee inside fear radius",
			def:  data.TemperamentDef{Behavior: component.BehaviorFleeNearest, FearRadius: 100},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(500, 300)
				slimeAt(ws, geom.V(580, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.InDelta(t, -120, u.DesiredVel.X, 1e-9)
				assert.InDelta(t, 0, u.DesiredVel.Y, 1e-9)
			},
		},
		{
			name: "flee ignores threats beyond fear radius",
			def:  data.TemperamentDef{Behavior: component.BehaviorFleeNearest, FearRadius: 100},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(500, 300)
				slimeAt(ws, geom.V(650, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.True(t, u.DesiredVel.IsZero())
			},
		},
		{
			name: "homebound returns when outside home radius",
			def:  data.TemperamentDef{Behavior: component.BehaviorHomebound, HomeRadius: 50, AvoidRadius: 40},
			setup: func(_ *world.State, u *component.Unit) {
				u.Pos = geom.V(300, 300)
			},
			check: func(t *testing.T, ws *world.State, u *component.Unit, _ *component.TemperamentState) {
				assertHeading(t, ws.Base.Pos.Sub(u.Pos), u.DesiredVel, 120)
			},
		},
		{
			name: "homebound sidesteps enemies at half speed",
			def:  data.TemperamentDef{Behavior: component.BehaviorHomebound, HomeRadius: 50, AvoidRadius: 40},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(120, 300)
				slimeAt(ws, geom.V(150, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.InDelta(t, -60, u.DesiredVel.X, 1e-9)
				assert.InDelta(t, 0, u.DesiredVel.Y, 1e-9)
			},
		},
		{
			name: "homebound rests at home",
			def:  data.TemperamentDef{Behavior: component.BehaviorHomebound, HomeRadius: 50, AvoidRadius: 40},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(120, 300)
				slimeAt(ws, geom.V(300, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.True(t, u.DesiredVel.IsZero())
			},
		},
		{
			name: "guard patrols the ring",
			def:  data.TemperamentDef{Behavior: component.BehaviorGuardBase, GuardRadius: 60, GuardSpeed: 1},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(300, 300)
				slimeAt(ws, geom.V(175, 300)) // near the ring but not inside it
			},
			check: func(t *testing.T, ws *world.State, u *component.Unit, ts *component.TemperamentState) {
				assert.InDelta(t, frame.Seconds(), ts.GuardAngle, 1e-9)
				post := ws.Base.Pos.Add(geom.FromAngle(ts.GuardAngle).Scale(60))
				assertHeading(t, post.Sub(u.Pos), u.DesiredVel, 120)
			},
		},
		{
			name: "guard engages inside the ring",
			def:  data.TemperamentDef{Behavior: component.BehaviorGuardBase, GuardRadius: 60, GuardSpeed: 1},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(300, 300)
				slimeAt(ws, geom.V(130, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.InDelta(t, -120, u.DesiredVel.X, 1e-9)
				assert.InDelta(t, 0, u.DesiredVel.Y, 1e-9)
			},
		},
		{
			name: "target tag prefers tagged enemies",
			def:  data.TemperamentDef{Behavior: component.BehaviorTargetTag, TargetTag: "boss"},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(500, 300)
				slimeAt(ws, geom.V(520, 300))
				slimeAt(ws, geom.V(500, 100)).Tags = []string{"elite", "boss"}
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.InDelta(t, 0, u.DesiredVel.X, 1e-9)
				assert.InDelta(t, -120, u.DesiredVel.Y, 1e-9)
			},
		},
		{
			name: "target tag falls back to the nearest enemy",
			def:  data.TemperamentDef{Behavior: component.BehaviorTargetTag, TargetTag: "boss"},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(500, 300)
				slimeAt(ws, geom.V(600, 300))
				slimeAt(ws, geom.V(500, 100)).Tags = []string{"elite"}
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.InDelta(t, 120, u.DesiredVel.X, 1e-9)
				assert.InDelta(t, 0, u.DesiredVel.Y, 1e-9)
			},
		},
		{
			name: "charge respects the detection radius",
			def:  data.TemperamentDef{Behavior: component.BehaviorChargeNearest, DetectionRadius: 100},
			setup: func(ws *world.State, u *component.Unit) {
				u.Pos = geom.V(500, 300)
				slimeAt(ws, geom.V(700, 300))
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.True(t, u.DesiredVel.IsZero())
			},
		},
		{
			name: "follow opens a catch-up window when far behind",
			def: data.TemperamentDef{
				Behavior: component.BehaviorFollowYuna, FollowDistance: 30,
				CatchupDistance: 100, CatchupDuration: 0.5, CatchupBoost: 2,
			},
			setup: func(_ *world.State, u *component.Unit) {
				u.Pos = geom.V(450, 300)
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, ts *component.TemperamentState) {
				assert.Equal(t, 0.5, ts.CatchUp)
				assert.InDelta(t, -240, u.DesiredVel.X, 1e-9)
			},
		},
		{
			name: "follow at normal speed inside catch-up distance",
			def: data.TemperamentDef{
				Behavior: component.BehaviorFollowYuna, FollowDistance: 30,
				CatchupDistance: 100, CatchupDuration: 0.5, CatchupBoost: 2,
			},
			setup: func(_ *world.State, u *component.Unit) {
				u.Pos = geom.V(360, 300)
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, ts *component.TemperamentState) {
				assert.Zero(t, ts.CatchUp)
				assert.InDelta(t, -120, u.DesiredVel.X, 1e-9)
			},
		},
		{
			name: "follow stops within follow distance",
			def:  data.TemperamentDef{Behavior: component.BehaviorFollowYuna, FollowDistance: 30},
			setup: func(_ *world.State, u *component.Unit) {
				u.Pos = geom.V(320, 300)
			},
			check: func(t *testing.T, _ *world.State, u *component.Unit, _ *component.TemperamentState) {
				assert.True(t, u.DesiredVel.IsZero())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, u, ts := soloUnit(t, nil, tt.def)
			tt.setup(ws, u)
			NewBehaviorSystem(ws, zap.NewNop()).Update(frame)
			tt.check(t, ws, u, ts)
		})
	}
}

func TestCatchUpWindowOutlastsTheGap(t *testing.T) {
	ws, u, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorFollowYuna, FollowDistance: 30,
		CatchupDistance: 100, CatchupDuration: 0.5, CatchupBoost: 2,
	})
	bs := NewBehaviorSystem(ws, zap.NewNop())
	u.Pos = geom.V(450, 300)
	bs.Update(frame)
	require.Positive(t, ts.CatchUp)

	u.Pos = geom.V(360, 300)
	bs.Update(frame)
	assert.InDelta(t, -240, u.DesiredVel.X, 1e-9, "boost lasts for its duration")

	for i := 0; i < 40; i++ {
		bs.Update(frame)
	}
	assert.Zero(t, ts.CatchUp)
	assert.InDelta(t, -120, u.DesiredVel.X, 1e-9)
}

func TestIgnoreOrdersPrecedence(t *testing.T) {
	// A homebound unit well inside its home radius has a zero temperament
	// velocity, so any motion comes from the order or slot.
	homebody := data.TemperamentDef{Behavior: component.BehaviorHomebound, HomeRadius: 1000}

	tests := []struct {
		name     string
		order    component.Order
		follower bool
		ignoring bool
		moving   bool
	}{
		{name: "retreat beats ignoring orders", order: component.OrderRetreat, ignoring: true, moving: true},
		{name: "ignoring orders beats charge", order: component.OrderCharge, ignoring: true},
		{name: "charge when obeying", order: component.OrderCharge, moving: true},
		{name: "ignoring orders beats the formation slot", order: component.OrderFollow, follower: true, ignoring: true},
		{name: "formation slot when obeying", order: component.OrderFollow, follower: true, moving: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, u, _ := soloUnit(t, nil, homebody)
			slimeAt(ws, geom.V(600, 100))
			u.Pos = geom.V(500, 300)
			u.IgnoreTimer = 10
			u.IgnoringOrders = tt.ignoring
			u.Follower = tt.follower
			u.SlotTarget = geom.V(450, 300)
			ws.Order = tt.order

			NewBehaviorSystem(ws, zap.NewNop()).Update(frame)

			assert.Equal(t, tt.moving, !u.DesiredVel.IsZero(), "velocity %v", u.DesiredVel)
		})
	}
}

func TestIgnoreOrdersReroll(t *testing.T) {
	for _, tt := range []struct {
		name   string
		chance float64
		want   bool
	}{
		{name: "certain", chance: 1, want: true},
		{name: "never", chance: 0, want: false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tables := testTables()
			tables.Morale.States = append(tables.Morale.States, data.MoraleModifiers{
				State: component.MoraleStable, Speed: 1, Accuracy: 1, Defense: 1, IgnoreOrders: tt.chance,
			})
			ws, u, _ := soloUnit(t, tables, data.TemperamentDef{Behavior: component.BehaviorHomebound, HomeRadius: 1000})
			bs := NewBehaviorSystem(ws, zap.NewNop())

			for i := 0; i < 30; i++ {
				bs.Update(frame)
			}
			assert.False(t, u.IgnoringOrders, "no roll before the interval")

			for i := 0; i < 35; i++ {
				bs.Update(frame)
			}
			assert.Equal(t, tt.want, u.IgnoringOrders)
			assert.Greater(t, u.IgnoreTimer, 0.9, "re-armed for the next interval")
		})
	}
}

func TestMimicRotatesOnRandomInterval(t *testing.T) {
	pool := []component.Behavior{component.BehaviorHomebound, component.BehaviorWander}
	ws, _, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorMimic, MimicPool: pool,
		MimicIntervalMin: 0.5, MimicIntervalMax: 1, HomeRadius: 1000,
	})
	require.Equal(t, component.BehaviorHomebound, ts.MimicBehavior, "starts on the first pool entry")
	bs := NewBehaviorSystem(ws, zap.NewNop())

	rotations := 0
	prev := ts.MimicTimer
	for i := 0; i < 180; i++ {
		bs.Update(frame)
		if ts.MimicTimer > prev {
			rotations++
			assert.GreaterOrEqual(t, ts.MimicTimer, 0.5)
			assert.LessOrEqual(t, ts.MimicTimer, 1.0)
		}
		assert.Contains(t, pool, ts.MimicBehavior)
		prev = ts.MimicTimer
	}
	assert.GreaterOrEqual(t, rotations, 3)
	assert.LessOrEqual(t, rotations, 7)
}

func TestWanderReheadsEachInterval(t *testing.T) {
	ws, u, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorWander, WanderInterval: 1, WanderSpeed: 0.5,
	})
	u.Pos = geom.V(500, 300)
	bs := NewBehaviorSystem(ws, zap.NewNop())

	bs.Update(frame)
	first := ts.WanderDir
	assert.InDelta(t, 60, u.DesiredVel.Len(), 1e-9)
	assert.InDelta(t, 1, ts.WanderTimer, 1e-9)

	for i := 0; i < 30; i++ {
		bs.Update(frame)
	}
	assert.Equal(t, first, ts.WanderDir, "heading holds within the interval")

	for i := 0; i < 35; i++ {
		bs.Update(frame)
	}
	assert.NotEqual(t, first, ts.WanderDir)
	assert.InDelta(t, 60, u.DesiredVel.Len(), 1e-9)
}

func TestDozeAlternatesSleepAndCharge(t *testing.T) {
	ws, u, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorDoze, DozeActive: 0.25, DozeSleep: 0.5,
	})
	u.Pos = geom.V(500, 300)
	slimeAt(ws, geom.V(500, 100))
	bs := NewBehaviorSystem(ws, zap.NewNop())

	bs.Update(frame)
	require.False(t, ts.Asleep)
	assert.InDelta(t, -120, u.DesiredVel.Y, 1e-9, "awake dozers charge")

	frames := 1
	for ; frames < 60 && !ts.Asleep; frames++ {
		bs.Update(frame)
	}
	require.True(t, ts.Asleep)
	assert.Equal(t, 16, frames)
	assert.True(t, u.DesiredVel.IsZero())

	frames = 0
	for ; frames < 60 && ts.Asleep; frames++ {
		bs.Update(frame)
	}
	require.False(t, ts.Asleep)
	assert.Equal(t, 31, frames)
	assert.InDelta(t, -120, u.DesiredVel.Y, 1e-9)
}

func TestSleepingUnitIgnoresOrdersAndSlots(t *testing.T) {
	doze := data.TemperamentDef{Behavior: component.BehaviorDoze, DozeActive: 1, DozeSleep: 10}
	for _, tt := range []struct {
		name     string
		order    component.Order
		follower bool
	}{
		{name: "charge", order: component.OrderCharge},
		{name: "follow slot", order: component.OrderFollow, follower: true},
		{name: "retreat", order: component.OrderRetreat},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ws, u, ts := soloUnit(t, nil, doze)
			u.Pos = geom.V(500, 300)
			slimeAt(ws, geom.V(560, 300))
			ts.Asleep = true
			ts.DozeTimer = 10
			ws.Order = tt.order
			u.Follower = tt.follower
			u.SlotTarget = geom.V(450, 300)

			NewBehaviorSystem(ws, zap.NewNop()).Update(frame)

			assert.True(t, u.DesiredVel.IsZero(), "velocity %v", u.DesiredVel)
		})
	}
}

func TestMimicLeavingDozeWakesUp(t *testing.T) {
	ws, u, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorMimic, MimicPool: []component.Behavior{component.BehaviorWander},
		MimicIntervalMin: 5, MimicIntervalMax: 5, WanderInterval: 1,
	})
	u.Pos = geom.V(500, 300)
	ts.Asleep = true

	NewBehaviorSystem(ws, zap.NewNop()).Update(frame)

	assert.False(t, ts.Asleep)
	assert.False(t, u.DesiredVel.IsZero())
}

func TestDashAmplifiesCharge(t *testing.T) {
	ws, u, ts := soloUnit(t, nil, data.TemperamentDef{
		Behavior: component.BehaviorChargeNearest, DashInterval: 0.5, DashDuration: 0.25, DashMultiplier: 2,
	})
	u.Pos = geom.V(500, 300)
	slimeAt(ws, geom.V(500, 100))
	bs := NewBehaviorSystem(ws, zap.NewNop())

	bs.Update(frame)
	require.False(t, ts.Dashing)
	assert.InDelta(t, 120, u.DesiredVel.Len(), 1e-9)

	for i := 0; i < 60 && !ts.Dashing; i++ {
		bs.Update(frame)
	}
	require.True(t, ts.Dashing)
	assert.InDelta(t, 240, u.DesiredVel.Len(), 1e-9)

	for i := 0; i < 60 && ts.Dashing; i++ {
		bs.Update(frame)
	}
	assert.InDelta(t, 120, u.DesiredVel.Len(), 1e-9)
}
