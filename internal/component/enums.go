package component

import (
	"fmt"
	"strings"
)

func enumString(names []string, v int) string {
	if v >= 0 && v < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum(names []string, kind string, text []byte) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// Job is an ally's combat role.
type Job int

const (
	JobWarrior Job = iota
	JobArcher
	JobShield
	jobCount
)

// JobCount is the number of jobs; jobs index HUD rows and job tables.
const JobCount = int(jobCount)

var jobNames = []string{"warrior", "archer", "shield"}

func (j Job) String() string { return enumString(jobNames, int(j)) }
func (j *Job) UnmarshalText(b []byte) error {
	v, err := parseEnum(jobNames, "job", b)
	*j = Job(v)
	return err
}

// Behavior is a temperament's movement behavior.
type Behavior int

const (
	BehaviorChargeNearest Behavior = iota
	BehaviorFleeNearest
	BehaviorFollowYuna
	BehaviorRaidGate
	BehaviorHomebound
	BehaviorWander
	BehaviorDoze
	BehaviorGuardBase
	BehaviorTargetTag
	BehaviorMimic
)

var behaviorNames = []string{
	"charge_nearest", "flee_nearest", "follow_yuna", "raid_gate", "homebound",
	"wander", "doze", "guard_base", "target_tag", "mimic",
}

func (b Behavior) String() string { return enumString(behaviorNames, int(b)) }
func (b *Behavior) UnmarshalText(t []byte) error {
	v, err := parseEnum(behaviorNames, "behavior", t)
	*b = Behavior(v)
	return err
}

// Archetype is an enemy kind.
type Archetype int

const (
	ArchetypeSlime Archetype = iota
	ArchetypeWallbreaker
	ArchetypeBoss
)

var archetypeNames = []string{"slime", "wallbreaker", "boss"}

func (a Archetype) String() string { return enumString(archetypeNames, int(a)) }
func (a *Archetype) UnmarshalText(t []byte) error {
	v, err := parseEnum(archetypeNames, "archetype", t)
	*a = Archetype(v)
	return err
}

// MoraleState is a unit's morale status.
type MoraleState int

const (
	MoraleStable MoraleState = iota
	MoraleLeaderDown
	MoralePanic
	MoraleMesomeso
	MoraleRecovering
	MoraleShielded
	moraleCount
)

// MoraleStateCount is the number of morale states.
const MoraleStateCount = int(moraleCount)

var moraleNames = []string{"stable", "leader_down", "panic", "mesomeso", "recovering", "shielded"}

func (m MoraleState) String() string { return enumString(moraleNames, int(m)) }
func (m *MoraleState) UnmarshalText(t []byte) error {
	v, err := parseEnum(moraleNames, "morale state", t)
	*m = MoraleState(v)
	return err
}

// Order is the commander's active stance order.
type Order int

const (
	OrderNone Order = iota
	OrderFollow
	OrderHold
	OrderCharge
	OrderRetreat
)

var orderNames = []string{"none", "follow", "hold", "charge", "retreat"}

func (o Order) String() string { return enumString(orderNames, int(o)) }
func (o *Order) UnmarshalText(t []byte) error {
	v, err := parseEnum(orderNames, "order", t)
	*o = Order(v)
	return err
}

// FormationKind names a formation shape.
type FormationKind int

const (
	FormationSwarm FormationKind = iota
	FormationWedge
	FormationLine
	FormationRing
)

var formationNames = []string{"swarm", "wedge", "line", "ring"}

func (f FormationKind) String() string { return enumString(formationNames, int(f)) }
func (f *FormationKind) UnmarshalText(t []byte) error {
	v, err := parseEnum(formationNames, "formation", t)
	*f = FormationKind(v)
	return err
}

// FormationState is the alignment state machine.
type FormationState int

const (
	FormationIdle FormationState = iota
	FormationAligning
	FormationLocked
)

var formationStateNames = []string{"idle", "aligning", "locked"}

func (f FormationState) String() string { return enumString(formationStateNames, int(f)) }

// SkillKind selects a skill's effect.
type SkillKind int

const (
	SkillRally SkillKind = iota
	SkillWall
	SkillOrder
	SkillShield
	SkillRush
)

var skillNames = []string{"rally", "wall", "order", "shield", "rush"}

func (s SkillKind) String() string { return enumString(skillNames, int(s)) }
func (s *SkillKind) UnmarshalText(t []byte) error {
	v, err := parseEnum(skillNames, "skill", t)
	*s = SkillKind(v)
	return err
}

// MissionKind selects the mission runtime.
type MissionKind int

const (
	MissionNone MissionKind = iota
	MissionBoss
	MissionCapture
	MissionSurvival
)

var missionNames = []string{"none", "boss", "capture", "survival"}

func (m MissionKind) String() string { return enumString(missionNames, int(m)) }
func (m *MissionKind) UnmarshalText(t []byte) error {
	v, err := parseEnum(missionNames, "mission", t)
	*m = MissionKind(v)
	return err
}

// Outcome is the scenario result.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeVictory
	OutcomeDefeat
)

var outcomeNames = []string{"none", "victory", "defeat"}

func (o Outcome) String() string { return enumString(outcomeNames, int(o)) }
