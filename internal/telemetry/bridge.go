package telemetry

import (
	"strconv"

	"github.com/izknhyt/kusozako-game-sub000/internal/core/event"
)

// Event names as recorded by sinks.
const (
	EventFormationChanged  = "formation_changed"
	EventFormationProgress = "formation_progress"
	EventWaveStarted       = "wave_started"
	EventGateDestroyed     = "gate_destroyed"
	EventMoraleChanged     = "morale_changed"
	EventCommanderDown     = "commander_down"
	EventCommanderRevived  = "commander_revived"
	EventUnitDied          = "unit_died"
	EventHUDSummary        = "hud_summary"
	EventOrderChanged      = "order_changed"
	EventOutcomeDecided    = "outcome_decided"
)

func tick(t uint64) string { return strconv.FormatUint(t, 10) }

func float(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// HUD is the HUD summary payload. JSON sinks keep the per-job rows nested;
// row-oriented sinks flatten it through Fields.
type HUD event.HUDSummary

func (h HUD) Fields() map[string]string {
	f := map[string]string{"tick": tick(h.Tick)}
	for _, j := range h.Jobs {
		k := j.Job.String()
		f[k+".alive"] = strconv.Itoa(j.Alive)
		f[k+".dead"] = strconv.Itoa(j.Dead)
		f[k+".cooling"] = strconv.Itoa(j.Cooling)
		f[k+".hp"] = float(j.HPRatio)
	}
	return f
}

// Bridge subscribes sink to every simulation event on bus. Handlers run
// during the cleanup flush, so sinks see events in emission order.
func Bridge(bus *event.Bus, sink Sink) {
	sink = OrNop(sink)
	event.Subscribe(bus, func(e event.FormationChanged) {
		sink.RecordEvent(EventFormationChanged, map[string]string{
			"tick": tick(e.Tick), "formation": e.Formation.String(), "previous": e.Previous.String(),
		})
	})
	event.Subscribe(bus, func(e event.FormationProgress) {
		sink.RecordEvent(EventFormationProgress, map[string]string{
			"tick": tick(e.Tick), "formation": e.Formation.String(), "state": e.State.String(),
			"progress": float(e.Progress), "followers": strconv.Itoa(e.Followers),
		})
	})
	event.Subscribe(bus, func(e event.WaveStarted) {
		f := map[string]string{
			"tick": tick(e.Tick), "wave": e.WaveID,
			"requests": strconv.Itoa(e.Requests), "skipped": strconv.Itoa(e.Skipped),
		}
		for i, g := range e.Gates {
			f["gate."+strconv.Itoa(i)] = g
		}
		sink.RecordEvent(EventWaveStarted, f)
	})
	event.Subscribe(bus, func(e event.GateDestroyed) {
		sink.RecordEvent(EventGateDestroyed, map[string]string{"tick": tick(e.Tick), "gate": e.GateID})
	})
	event.Subscribe(bus, func(e event.MoraleChanged) {
		sink.RecordEvent(EventMoraleChanged, map[string]string{
			"tick": tick(e.Tick), "unit": strconv.FormatUint(uint64(e.Unit), 10),
			"from": e.From.String(), "to": e.To.String(),
		})
	})
	event.Subscribe(bus, func(e event.CommanderDown) {
		sink.RecordEvent(EventCommanderDown, map[string]string{"tick": tick(e.Tick)})
	})
	event.Subscribe(bus, func(e event.CommanderRevived) {
		sink.RecordEvent(EventCommanderRevived, map[string]string{"tick": tick(e.Tick)})
	})
	event.Subscribe(bus, func(e event.UnitDied) {
		sink.RecordEvent(EventUnitDied, map[string]string{
			"tick": tick(e.Tick), "unit": strconv.FormatUint(uint64(e.Unit), 10), "job": e.Job.String(),
			"overkill": float(e.OverkillRate), "respawn_in": float(e.RespawnIn),
		})
	})
	event.Subscribe(bus, func(e event.HUDSummary) {
		sink.Dispatch(EventHUDSummary, HUD(e))
	})
	event.Subscribe(bus, func(e event.OrderChanged) {
		sink.RecordEvent(EventOrderChanged, map[string]string{
			"tick": tick(e.Tick), "order": e.Order.String(), "expired": strconv.FormatBool(e.Expired),
		})
	})
	event.Subscribe(bus, func(e event.OutcomeDecided) {
		sink.RecordEvent(EventOutcomeDecided, map[string]string{
			"tick": tick(e.Tick), "outcome": e.Outcome.String(), "reason": e.Reason,
		})
	})
}
