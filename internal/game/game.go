// Package game implements the combat resolution rules for a single
// match: two squads of three units trading load/launch/shield actions
// in simultaneous rounds. The package is pure state machinery with no
// I/O; resolution never fails, it only reports advisory per-action
// errors.
package game

// Gameplay constants.
const (
	NumUnits      = 3
	InitialHealth = 5
	ShieldBonus   = 3
	MaxRounds     = 250
)

// ActionKind tags a unit's action for one round.
type ActionKind string

const (
	ActionNone   ActionKind = "none"
	ActionLoad   ActionKind = "load"
	ActionLaunch ActionKind = "launch"
	ActionShield ActionKind = "shield"
)

// Action is one unit's move for a round. Target and Strength are only
// meaningful for launch.
type Action struct {
	Kind     ActionKind `json:"type"`
	Target   int        `json:"target,omitempty"`
	Strength int        `json:"strength,omitempty"`
}

// ErrorKind classifies why a submitted action was skipped.
type ErrorKind string

const (
	InvalidTarget    ErrorKind = "invalid_target"
	DeadTarget       ErrorKind = "dead_target"
	DeadUnitActed    ErrorKind = "dead_unit_acted"
	InsufficientAmmo ErrorKind = "insufficient_ammo"
)

// ActionError reports a skipped action. Advisory only: the match
// continues and the offending action has no effect.
type ActionError struct {
	Kind ErrorKind `json:"kind"`
	Unit int       `json:"unit"`
}

// Unit is one combat unit's mutable state. Health 0 means dead; a
// dead unit's ammo is always 0.
type Unit struct {
	Health int `json:"health"`
	Ammo   int `json:"ammo"`
}

// Squad is one side's three units, in fixed order for the whole match.
type Squad [NumUnits]Unit

// NewSquad returns a squad at full health with empty launchers.
func NewSquad() Squad {
	var s Squad
	for i := range s {
		s[i] = Unit{Health: InitialHealth}
	}
	return s
}

// Alive reports whether any unit in the squad still has health.
func (s Squad) Alive() bool {
	for _, u := range s {
		if u.Health > 0 {
			return true
		}
	}
	return false
}

// Status is the match state. Terminal statuses never revert.
type Status int

const (
	InProgress Status = iota
	SideAWins
	SideBWins
	Tie
)

func (s Status) String() string {
	switch s {
	case SideAWins:
		return "side_a_wins"
	case SideBWins:
		return "side_b_wins"
	case Tie:
		return "tie"
	default:
		return "in_progress"
	}
}

// Record is one round of history: the pre-round squads, both sides'
// actions and the per-side rule errors.
type Record struct {
	Round    int           `json:"round"`
	A        Squad         `json:"a"`
	B        Squad         `json:"b"`
	ActionsA []Action      `json:"actions_a"`
	ActionsB []Action      `json:"actions_b"`
	ErrorsA  []ActionError `json:"errors_a,omitempty"`
	ErrorsB  []ActionError `json:"errors_b,omitempty"`
}

// Match is the full state of one game between two sides. A match is
// owned by exactly one session controller; nothing else mutates it.
type Match struct {
	ID      string
	A, B    Squad
	Round   int
	Status  Status
	History []Record
}

// NewMatch creates a fresh match with both squads at full strength.
func NewMatch(id string) *Match {
	return &Match{ID: id, A: NewSquad(), B: NewSquad()}
}

// Advance resolves one round from both sides' actions and returns the
// per-side action errors. Both directions resolve against the same
// pre-round snapshots, so neither side gets a first-mover advantage.
func (m *Match) Advance(actsA, actsB []Action) ([]ActionError, []ActionError) {
	actsA = normalize(actsA)
	actsB = normalize(actsB)
	preA, preB := m.A, m.B

	attA := preA
	healthsB, errsA := resolve(actsA, &attA, actsB, preB)
	attB := preB
	healthsA, errsB := resolve(actsB, &attB, actsA, preA)

	m.History = append(m.History, Record{
		Round: m.Round, A: preA, B: preB,
		ActionsA: actsA, ActionsB: actsB,
		ErrorsA: errsA, ErrorsB: errsB,
	})

	for i := range m.A {
		m.A[i] = Unit{Health: healthsA[i], Ammo: attA[i].Ammo}
		m.B[i] = Unit{Health: healthsB[i], Ammo: attB[i].Ammo}
		if m.A[i].Health == 0 {
			m.A[i].Ammo = 0
		}
		if m.B[i].Health == 0 {
			m.B[i].Ammo = 0
		}
	}
	m.Round++

	aDead, bDead := !m.A.Alive(), !m.B.Alive()
	switch {
	case (aDead && bDead) || m.Round >= MaxRounds:
		m.Status = Tie
	case aDead:
		m.Status = SideBWins
	case bDead:
		m.Status = SideAWins
	}
	return errsA, errsB
}

// resolve applies one side's actions against the defender's pre-round
// squad. att is mutated in place (loads and spent ammo); the returned
// healths are the defender's post-round values. def and defActs are
// the pre-round snapshot, never a partially updated squad.
func resolve(acts []Action, att *Squad, defActs []Action, def Squad) ([NumUnits]int, []ActionError) {
	// A unit shielding this round absorbs up to ShieldBonus damage.
	var eff [NumUnits]int
	for i, u := range def {
		eff[i] = u.Health
		if defActs[i].Kind == ActionShield && u.Health > 0 {
			eff[i] += ShieldBonus
		}
	}

	var errs []ActionError
	for i, a := range acts {
		if a.Kind == ActionNone || a.Kind == "" {
			continue
		}
		if att[i].Health == 0 {
			errs = append(errs, ActionError{Kind: DeadUnitActed, Unit: i})
			continue
		}
		switch a.Kind {
		case ActionLoad:
			att[i].Ammo++
		case ActionLaunch:
			if a.Strength < 0 || a.Strength > att[i].Ammo {
				errs = append(errs, ActionError{Kind: InsufficientAmmo, Unit: i})
				continue
			}
			if a.Target < 0 || a.Target >= NumUnits {
				errs = append(errs, ActionError{Kind: InvalidTarget, Unit: i})
				continue
			}
			if def[a.Target].Health == 0 {
				errs = append(errs, ActionError{Kind: DeadTarget, Unit: i})
				continue
			}
			eff[a.Target] -= a.Strength
			if eff[a.Target] < 0 {
				eff[a.Target] = 0
			}
			att[i].Ammo -= a.Strength
		case ActionShield:
			// Already folded into effective health above.
		}
	}

	// Shields mitigate this round's damage only; a unit never ends the
	// round above its pre-round health.
	for i := range eff {
		if eff[i] > def[i].Health {
			eff[i] = def[i].Health
		}
	}
	return eff, errs
}

// normalize pads or truncates an action list to exactly NumUnits
// entries so resolution can index freely. The session layer validates
// lengths; this keeps the engine total regardless.
func normalize(acts []Action) []Action {
	if len(acts) == NumUnits {
		return acts
	}
	out := make([]Action, NumUnits)
	for i := range out {
		if i < len(acts) {
			out[i] = acts[i]
		} else {
			out[i] = Action{Kind: ActionNone}
		}
	}
	return out
}
